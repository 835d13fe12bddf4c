// ABOUTME: Package output provides audio playback backends
// ABOUTME: Defines the sink interface used by the playback scheduler
package output
