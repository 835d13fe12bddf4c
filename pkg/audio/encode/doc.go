// ABOUTME: Package encode converts float audio samples to wire PCM formats
// ABOUTME: Used by the capture pipeline to produce outbound 16-bit PCM
package encode
