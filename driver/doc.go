// Package driver runs a reading session turn by turn.
//
// The Driver is a small state machine:
//
//	AwaitingInput -> Routing -> Responding -> AwaitingInput
//	      \______________________________________-> Terminated
//
// Input comes from a Source: the scripted demo (ScriptSource), typed lines
// (TextSource) or clips recorded between two presses of Enter (VoiceSource).
// The literal input "quit" terminates the session.
//
// Voice failures never end a turn. When speech-to-text fails the driver asks
// for typed input instead; when text-to-speech fails the turn is kept with
// AudioSkipped set. A failed turn is reported and the session continues
// until MaxConsecutiveErrors failures happen in a row.
package driver
