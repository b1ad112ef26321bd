package workflow

// Store keys shared between the actions of one workflow run
const (
	// KeyWormholeAddress is the public address of the wormhole node
	KeyWormholeAddress = "wormgate.wormhole.address"

	// KeyStargateAddress is the public address of the stargate node
	KeyStargateAddress = "wormgate.stargate.address"
)
