// Package analysis extracts tempo, key, scale, danceability, energy and integrated loudness from audio files.
//
// # Engines
//
// Decoding and signal processing are delegated to an [Engine], which returns a nested [Pool] of descriptors.
// [EssentiaEngine] runs Essentia's streaming music extractor as a subprocess with a generated profile.
//
// # Results
//
// [Extractor.Analyze] never returns an error and never panics. It returns a [Result] whose
// [Result.Features] ok flag must be checked. Engine errors, engine panics and missing or mistyped pool
// entries are logged and surface through [Result.Err]:
//   - [shared.ErrAnalysisFailed] : the engine failed or panicked
//   - [shared.ErrFeatureUnavailable] : a descriptor was absent from the pool or had the wrong type
//
// # Probe
//
// [Probe] reads MP3 files natively with go-mp3 to report duration, sample rate and RMS energy without the engine.
package analysis
