// internal/status/decode.go
package status

import "fmt"

// TxState is the framer transmit state machine position.
type TxState uint8

const (
	TxCGS     TxState = 0
	TxILAS    TxState = 1
	TxADCData TxState = 2
	TxInvalid TxState = 3
)

func (s TxState) String() string {
	switch s {
	case TxCGS:
		return "CGS"
	case TxILAS:
		return "ILAS"
	case TxADCData:
		return "ADC Data"
	}
	return "invalid state"
}

// ILASState is the initial lane alignment sub-state.
type ILASState uint8

const (
	ILASCGS      ILASState = 0
	ILASLast     ILASState = 5
	ILASInvalid  ILASState = 6
	ILASComplete ILASState = 7
)

func (s ILASState) String() string {
	switch {
	case s == ILASCGS:
		return "CGS"
	case s >= 1 && s <= 4:
		return fmt.Sprintf("Multiframe %d", s)
	case s == ILASLast:
		return "Last Multiframe"
	case s == ILASComplete:
		return "ILAS Complete"
	}
	return "invalid state"
}

// FramerStatus is the decoded ASIC framer status word.
type FramerStatus struct {
	Raw              uint8
	TxState          TxState
	ILAS             ILASState
	SysrefReceived   bool
	FifoDeltaChanged bool // decoded for logs only, never part of OK
	SysrefPhaseError bool
	OK               bool
}

// DecodeFramer decodes the low byte of a framer status word.
// The FIFO pointer delta bit is known to toggle while deterministic latency
// is still achieved; it is reported but does not affect OK.
func DecodeFramer(word uint16) FramerStatus {
	rb := uint8(word)
	s := FramerStatus{
		Raw:              rb,
		TxState:          TxState((rb & FramerTxStateMask) >> FramerTxStateShift),
		ILAS:             ILASState((rb & FramerILASMask) >> FramerILASShift),
		SysrefReceived:   rb&FramerSysrefReceived != 0,
		FifoDeltaChanged: rb&FramerFifoDeltaChange != 0,
		SysrefPhaseError: rb&FramerSysrefPhaseErr != 0,
	}
	s.OK = s.TxState == TxADCData &&
		s.ILAS == ILASComplete &&
		s.SysrefReceived &&
		!s.SysrefPhaseError
	return s
}

// Fields lists every decoded field for diagnostics.
func (s FramerStatus) Fields() []string {
	return []string{
		fmt.Sprintf("framer status=0x%02X", s.Raw),
		fmt.Sprintf("tx state=%s", s.TxState),
		fmt.Sprintf("ilas state=%s", s.ILAS),
		fmt.Sprintf("sysref received=%t", s.SysrefReceived),
		fmt.Sprintf("fifo ptr delta changed=%t (ignored)", s.FifoDeltaChanged),
		fmt.Sprintf("sysref phase error=%t", s.SysrefPhaseError),
	}
}

// DeframerStatus is the decoded ASIC deframer status word.
type DeframerStatus struct {
	Raw              uint8
	FrameSymbolError bool
	ILASMultiframe   bool
	ILASFraming      bool
	ILASChecksumOK   bool
	PRBSError        bool
	SysrefReceived   bool
	IRQ              bool
	OK               bool
}

// DecodeDeframer decodes the low byte of a deframer status word.
func DecodeDeframer(word uint16) DeframerStatus {
	rb := uint8(word)
	s := DeframerStatus{
		Raw:              rb,
		FrameSymbolError: rb&DeframerFrameSymbolErr != 0,
		ILASMultiframe:   rb&DeframerILASMultiErr != 0,
		ILASFraming:      rb&DeframerILASFramingErr != 0,
		ILASChecksumOK:   rb&DeframerILASChecksumOK != 0,
		PRBSError:        rb&DeframerPRBSErr != 0,
		SysrefReceived:   rb&DeframerSysrefReceived != 0,
		IRQ:              rb&DeframerIRQ != 0,
	}
	s.OK = !s.FrameSymbolError &&
		!s.ILASMultiframe &&
		!s.ILASFraming &&
		s.ILASChecksumOK &&
		!s.PRBSError &&
		s.SysrefReceived &&
		!s.IRQ
	return s
}

// Fields lists every decoded field for diagnostics.
func (s DeframerStatus) Fields() []string {
	return []string{
		fmt.Sprintf("deframer status=0x%02X", s.Raw),
		fmt.Sprintf("frame symbol error=%t", s.FrameSymbolError),
		fmt.Sprintf("ilas multiframe error=%t", s.ILASMultiframe),
		fmt.Sprintf("ilas framing error=%t", s.ILASFraming),
		fmt.Sprintf("ilas checksum valid=%t", s.ILASChecksumOK),
		fmt.Sprintf("prbs error=%t", s.PRBSError),
		fmt.Sprintf("sysref received=%t", s.SysrefReceived),
		fmt.Sprintf("deframer irq=%t", s.IRQ),
	}
}

// MultichipSynced reports whether every required MCS bit is set.
func MultichipSynced(mask uint8) bool {
	return mask&MultichipSyncMask == MultichipSyncMask
}
