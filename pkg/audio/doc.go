// ABOUTME: Package audio provides core audio types for the streaming engine
// ABOUTME: Shared by the capture, decode, resample and playback packages
package audio
