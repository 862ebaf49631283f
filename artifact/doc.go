// Package artifact contains the in-process core.ArtifactStore used to keep the
// synthesized speech of each turn for the lifetime of a session.
//
// Nothing is written to disk by the store itself; playback sinks in the voice
// package decide whether audio leaves the process.
package artifact
