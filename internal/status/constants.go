// internal/status/constants.go
package status

// ---- FRAMER STATUS WORD (ASIC framer, ADC -> FPGA) ----

const (
	FramerTxStateMask  = 0b11
	FramerTxStateShift = 0

	FramerILASMask  = 0b11100
	FramerILASShift = 2

	FramerSysrefReceived  = 1 << 5
	FramerFifoDeltaChange = 1 << 6
	FramerSysrefPhaseErr  = 1 << 7
)

// ---- DEFRAMER STATUS WORD (ASIC deframer, FPGA -> DAC) ----

const (
	DeframerFrameSymbolErr = 1 << 0
	DeframerILASMultiErr   = 1 << 1
	DeframerILASFramingErr = 1 << 2
	DeframerILASChecksumOK = 1 << 3
	DeframerPRBSErr        = 1 << 4
	DeframerSysrefReceived = 1 << 5
	DeframerIRQ            = 1 << 6
)

// ---- MULTICHIP SYNC ----

// MultichipSyncMask lists the bits that must all be set after MCS.
const MultichipSyncMask = 0xB

// Device Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per device.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the device health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the fault kind of the last failure.
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the device has been in error.
const SlotSecondsInError = 2

// SlotLinkFlags holds the FlagXxx bits.
const SlotLinkFlags = 3

// SlotLaneRate holds the current lane rate in Mbps (0 = unknown).
const SlotLaneRate = 4

// Slots 5-10 are reserved.
const SlotReservedStart = 5
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- LINK FLAGS ----

const (
	FlagPeripheralsReady uint16 = 1 << 0
	FlagLinkTrained      uint16 = 1 << 1
	FlagRefLocked        uint16 = 1 << 2
	FlagTxLowbandLO      uint16 = 1 << 3
	FlagRxLowbandLO      uint16 = 1 << 4
	FlagTxASICLO         uint16 = 1 << 5
	FlagRxASICLO         uint16 = 1 << 6
)

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a trained, streaming-capable board.
const HealthOK uint16 = 1

// HealthError represents a failed bring-up or lost lock.
const HealthError uint16 = 2

// HealthDisabled represents a board whose peripherals never came up.
const HealthDisabled uint16 = 4
