// Package ui renders terminal feedback for long-running commands using bubbletea's Elm architecture.
//
// [Run] shows a [spinner.Model] while a blocking [Task] runs in the background:
//  1. Init starts the spinner tick and the task command together
//  2. Update advances the spinner until a [MsgTaskDone] message arrives, then quits
//  3. ctrl+c or q cancels the task's context and quits early
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
//
// The package also exposes the lipgloss palette ([Title], [Success], [Error], [Warn], [Help]) used for command output.
package ui
