// internal/jesd/core.go
package jesd

// DRPDomain selects which transceiver block the DRP port talks to.
type DRPDomain string

const (
	DomainQPLL DRPDomain = "qpll"
	DomainMGT  DRPDomain = "mgt"
)

// Core is the FPGA-side JESD204B core together with its transceivers.
// The FPGA framer carries ASIC->FPGA data (it receives ADC samples),
// the FPGA deframer carries FPGA->ASIC data. Status reads return the
// core's own sync verdict.
type Core interface {
	Reset() error
	CheckCore() error

	InitFramer() error
	InitDeframer() error
	EnableLMFC(enable bool) error
	SendSysref() error

	FramerStatus() (bool, error)
	DeframerStatus() (bool, error)

	// Init pulses the QPLL/GTX reset; QPLLLocked reports the relock.
	Init() error
	QPLLLocked() (bool, error)

	SelectDRP(d DRPDomain, index int) error
	ReadDRP(addr uint16) (uint16, error)
	WriteDRP(addr, v uint16) error
	DeselectDRP() error
}

// QPLL DRP registers.
const (
	drpQPLLCfgLo  uint16 = 0x32
	drpQPLLCfgHi  uint16 = 0x33 // [10:0] = QPLL_CFG[26:16], rest shared
	drpQPLLFbDiv  uint16 = 0x36 // [9:0], rest shared
	qpllCfgHiKeep uint16 = 0xF800
	qpllFbDivKeep uint16 = 0xFC00
)

// GTX (MGT) DRP registers.
const (
	drpPMARsvLo     uint16 = 0x99
	drpPMARsvHi     uint16 = 0x9A
	drpRxClk25      uint16 = 0x11 // [10:6] = RX_CLK25_DIV-1
	drpTxClk25      uint16 = 0x6A // [4:0] = TX_CLK25_DIV-1
	drpRxCDRBase    uint16 = 0xA8 // 0xA8..0xAD, LSW first
	drpOutDiv       uint16 = 0x88 // [2:0] log2(RXOUT), [6:4] log2(TXOUT)
	rxClk25Keep     uint16 = 0xF83F
	txClk25Keep     uint16 = 0xFFE0
	clk25FieldMask  uint16 = 0x1F
	rxClk25FieldPos        = 6
)
