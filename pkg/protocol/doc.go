// ABOUTME: Package protocol implements the conversational-voice wire protocol
// ABOUTME: Frame codec plus the duplex connection state machine
package protocol
