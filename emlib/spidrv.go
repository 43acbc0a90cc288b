package emlib

// SPIDRVType selects master or slave role.
type SPIDRVType uint8

const (
	SPIDRVMaster SPIDRVType = iota
	SPIDRVSlave
)

// SPIDRVBitOrder selects the shift direction.
type SPIDRVBitOrder uint8

const (
	SPIDRVBitOrderLsbFirst SPIDRVBitOrder = iota
	SPIDRVBitOrderMsbFirst
)

// SPIDRVClockMode is the (CLKPOL, CLKPHA) pair.
//
//	mode | CLKPOL | CLKPHA
//	  0  |   0    |   0
//	  1  |   0    |   1
//	  2  |   1    |   0
//	  3  |   1    |   1
type SPIDRVClockMode uint8

const (
	SPIDRVClockMode0 SPIDRVClockMode = iota
	SPIDRVClockMode1
	SPIDRVClockMode2
	SPIDRVClockMode3
)

// Polarity reports CLKPOL (idle high).
func (m SPIDRVClockMode) Polarity() bool { return m&2 != 0 }

// Phase reports CLKPHA (sample on second edge).
func (m SPIDRVClockMode) Phase() bool { return m&1 != 0 }

// SPIDRVCsControl selects who drives chip select.
type SPIDRVCsControl uint8

const (
	SPIDRVCsControlAuto SPIDRVCsControl = iota
	SPIDRVCsControlApplication
)

// SPIDRVSlaveStartMode applies to the slave role only.
type SPIDRVSlaveStartMode uint8

const (
	SPIDRVSlaveStartImmediate SPIDRVSlaveStartMode = iota
	SPIDRVSlaveStartDelayed
)

// SPIDRVInit mirrors the vendor SPIDRV init record for series-1 parts,
// where pins are chosen by per-signal route location.
type SPIDRVInit struct {
	Port            Addr
	PortLocationTx  uint8
	PortLocationRx  uint8
	PortLocationClk uint8
	PortLocationCs  uint8
	BitRate         uint32
	FrameLength     uint32
	DummyTxValue    uint32
	Type            SPIDRVType
	BitOrder        SPIDRVBitOrder
	ClockMode       SPIDRVClockMode
	CsControl       SPIDRVCsControl
	SlaveStartMode  SPIDRVSlaveStartMode
}

// SPIDRVHandle is the session record. Callers allocate it zeroed; Init
// fills it and every later call must be given the same pointer.
type SPIDRVHandle struct {
	InitData    SPIDRVInit
	Initialized bool
	// BitRate is the rate the hardware actually produces.
	BitRate uint32
}

// SPIDRVLib is the SPI half of the vendor library. Transfers block until
// complete.
type SPIDRVLib interface {
	Init(h *SPIDRVHandle, init *SPIDRVInit) Ecode
	DeInit(h *SPIDRVHandle) Ecode
	SetBitrate(h *SPIDRVHandle, bitRate uint32) Ecode
	MTransferB(h *SPIDRVHandle, tx, rx []byte, count int32) Ecode
	MTransmitB(h *SPIDRVHandle, tx []byte, count int32) Ecode
}

// CheckInit applies the parameter checks every SPIDRVLib.Init performs.
func CheckInit(h *SPIDRVHandle, init *SPIDRVInit) Ecode {
	switch {
	case h == nil:
		return SPIDRVIllegalHandle
	case init == nil, init.BitRate == 0:
		return SPIDRVParamError
	case init.FrameLength < 4 || init.FrameLength > 16:
		return SPIDRVParamError
	case init.Type != SPIDRVMaster:
		return SPIDRVModeError
	}
	return ECodeOK
}

// CheckTransfer applies the handle and length checks shared by blocking
// transfers. rx may be nil for transmit-only.
func CheckTransfer(h *SPIDRVHandle, tx, rx []byte, count int32) Ecode {
	switch {
	case h == nil || !h.Initialized:
		return SPIDRVIllegalHandle
	case count <= 0:
		return SPIDRVParamError
	case tx == nil || int64(count) > int64(len(tx)):
		return SPIDRVParamError
	case rx != nil && int64(count) > int64(len(rx)):
		return SPIDRVParamError
	}
	return ECodeOK
}
