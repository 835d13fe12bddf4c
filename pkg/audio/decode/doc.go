// ABOUTME: Package decode normalizes inbound audio payloads of unknown format
// ABOUTME: Trial-decodes compressed formats, then falls back to raw PCM16
package decode
