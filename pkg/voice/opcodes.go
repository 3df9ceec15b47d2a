package voice

// Opcode is a Discord voice gateway v8 payload opcode.
type Opcode int

const (
	OpIdentify           Opcode = 0
	OpSelectProtocol     Opcode = 1
	OpReady              Opcode = 2
	OpHeartbeat          Opcode = 3
	OpSessionDescription Opcode = 4
	OpSpeaking           Opcode = 5
	OpHeartbeatACK       Opcode = 6
	OpResume             Opcode = 7
	OpHello              Opcode = 8
	OpResumed            Opcode = 9
	OpClientsConnect     Opcode = 11
	OpClientDisconnect   Opcode = 13

	OpDAVEPrepareTransition           Opcode = 21
	OpDAVEExecuteTransition           Opcode = 22
	OpDAVETransitionReady             Opcode = 23
	OpDAVEPrepareEpoch                Opcode = 24
	OpDAVEMLSExternalSender           Opcode = 25
	OpDAVEMLSKeyPackage               Opcode = 26
	OpDAVEMLSProposals                Opcode = 27
	OpDAVEMLSCommitWelcome            Opcode = 28
	OpDAVEMLSAnnounceCommitTransition Opcode = 29
	OpDAVEMLSWelcome                  Opcode = 30
	OpDAVEMLSInvalidCommitWelcome     Opcode = 31

	// voiceGatewayVersion is the Discord voice gateway protocol version
	// this client speaks.
	voiceGatewayVersion = 8
)

// payload is the envelope every voice gateway message uses: an opcode
// plus an opcode-specific data object.
type payload struct {
	Op Opcode `json:"op"`
	D  any    `json:"d"`
}
