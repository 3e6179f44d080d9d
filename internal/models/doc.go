// Package models defines the value objects passed between soundbits components.
//
// All types are transient request/response values with no persistence:
//   - [Playlist] : a playlist created on the remote catalog, identified by its service-assigned ID
//   - [TrackRef] : an opaque track URI supplied by the caller
//   - [AudioFeatures] : tempo, key, scale, danceability, energy and integrated loudness of one file
//   - [Probe] : duration, sample rate and RMS energy read natively from an MP3
package models
