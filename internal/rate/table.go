// internal/rate/table.go
package rate

// Params is the set of QPLL/GTX attribute values that change with the lane
// rate. Values were taken from transceiver wizard output generated for each
// rate; all other attributes are identical across rates.
type Params struct {
	QPLLCfg   uint32 // 27 bits
	QPLLFbDiv uint16 // 10 bits

	PMARsv     uint32 // 32 bits, split over two DRP words
	RxClk25Div uint8
	TxClk25Div uint8
	RxOutDiv   uint8 // power of two
	TxOutDiv   uint8 // power of two
	RxCDRCfg   [CDRWords]uint16
	LaneCount  int
}

// CDRWords is the number of 16-bit DRP words holding RXCDR_CFG.
const CDRWords = 6

// cdrWords splits a 72-bit RXCDR_CFG (given as hi byte + low 64 bits)
// into DRP words, least significant first.
func cdrWords(hi uint16, lo uint64) [CDRWords]uint16 {
	var w [CDRWords]uint16
	for i := 0; i < 4; i++ {
		w[i] = uint16(lo >> (16 * i))
	}
	w[4] = hi
	return w
}

var lowRate = Params{
	QPLLCfg:    0x680181,
	QPLLFbDiv:  0x120,
	PMARsv:     0x1E7080,
	RxClk25Div: 5,
	TxClk25Div: 5,
	RxOutDiv:   4,
	TxOutDiv:   4,
	RxCDRCfg:   cdrWords(0x03, 0x000023ff10100020),
	LaneCount:  Lanes,
}

var highRate = Params{
	QPLLCfg:    0x06801C1,
	QPLLFbDiv:  0x80,
	PMARsv:     0x18480,
	RxClk25Div: 7,
	TxClk25Div: 7,
	RxOutDiv:   2,
	TxOutDiv:   2,
	RxCDRCfg:   cdrWords(0x03, 0x000023ff10200020),
	LaneCount:  Lanes,
}

var table = map[LaneRate]Params{
	Rate2457M6: lowRate,
	Rate2500M:  lowRate,
	Rate3072M:  highRate,
}

// ParamsFor returns the parameter set for r.
func ParamsFor(r LaneRate) (Params, bool) {
	p, ok := table[r]
	return p, ok
}

//	current      new:  2457.6  2500   3072
var compatible = map[LaneRate]map[LaneRate]bool{
	Rate2457M6: {Rate2457M6: true, Rate2500M: true, Rate3072M: false},
	Rate2500M:  {Rate2457M6: true, Rate2500M: true, Rate3072M: false},
	Rate3072M:  {Rate2457M6: false, Rate2500M: false, Rate3072M: true},
}

// Compatible reports whether moving from cur to next can skip
// reprogramming. An unknown current rate is never compatible.
func Compatible(cur, next LaneRate) bool {
	return compatible[cur][next]
}
