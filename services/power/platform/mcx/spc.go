// services/power/platform/mcx/spc.go
//go:build tinygo && mcxn947

package mcx

import (
	"powerswitch-go/errcode"
	"powerswitch-go/services/power/internal/hw"
)

const (
	spcSC          = spc0 + 0x10
	spcCNTRL       = spc0 + 0x14
	spcLPREQCFG    = spc0 + 0x1C
	spcPDSTATUS0   = spc0 + 0x30
	spcACTIVECFG   = spc0 + 0x100
	spcACTIVECFG1  = spc0 + 0x104
	spcLPCFG       = spc0 + 0x108
	spcLPCFG1      = spc0 + 0x10C
	spcLPWKUPDELAY = spc0 + 0x120

	scBUSY       = 1 << 0
	scLPREQ      = 1 << 1     // w1c
	scISOCLR     = 0xFF << 16 // w1c
	pdLPREQ      = 1 << 4     // w1c
	cntrlCORELDO = 1 << 0

	lpreqOE    = 1 << 0
	lpreqPOL   = 1 << 1
	lpreqOVPos = 2

	// ACTIVE_CFG / LP_CFG fields.
	cfgCoreLDODSPos  = 0
	cfgCoreLDOLvlPos = 2
	cfgSysLDODSPos   = 8
	cfgSysLDOLvlPos  = 9
	cfgDCDCDSPos     = 10
	cfgDCDCLvlPos    = 12
	cfgCoreIVS       = 1 << 17
	cfgGlitchOff     = 1 << 19
	cfgBGModePos     = 20
	cfgLPBuff        = 1 << 22
	cfgLPIREF        = 1 << 23

	// ACTIVE_CFG detector enables, in hw.Detectors order.
	cfgDetectorPos = 24
)

type spc struct{}

var _ hw.PowerController = spc{}

func (spc) Busy() bool { return reg(spcSC).HasBits(scBUSY) }

func (spc) DisableActiveModeAnalogModules(m hw.AnalogModules) {
	reg(spcACTIVECFG1).ClearBits(uint32(m))
}

func (spc) EnableActiveModeDetector(d hw.Detector, on bool) {
	if int(d) >= len(hw.Detectors) {
		return
	}
	bit(reg(spcACTIVECFG), 1<<(cfgDetectorPos+uint32(d)), on)
}

func (s spc) SetActiveModeRegulators(cfg hw.ActiveRegulators) error {
	if s.Busy() {
		return errcode.Busy
	}
	if cfg.CoreLDOVolt > cfg.DCDCVoltage {
		return errcode.VoltageInvalid
	}
	r := reg(spcACTIVECFG)
	field(r, cfgBGModePos, 0b11, uint32(cfg.Bandgap))
	bit(r, cfgLPBuff, cfg.LPBuff)
	field(r, cfgDCDCLvlPos, 0b11, level(cfg.DCDCVoltage))
	field(r, cfgDCDCDSPos, 0b11, uint32(cfg.DCDCDrive))
	field(r, cfgSysLDOLvlPos, 0b1, sysLevel(cfg.SysLDOVolt))
	field(r, cfgSysLDODSPos, 0b1, uint32(cfg.SysLDODrive))
	field(r, cfgCoreLDOLvlPos, 0b11, level(cfg.CoreLDOVolt))
	field(r, cfgCoreLDODSPos, 0b1, uint32(cfg.CoreLDODrive))
	return nil
}

func (spc) DisableActiveModeVddCoreGlitchDetect(disable bool) {
	bit(reg(spcACTIVECFG), cfgGlitchOff, disable)
}

func (spc) DisableLowPowerModeAnalogModules(m hw.AnalogModules) {
	reg(spcLPCFG1).ClearBits(uint32(m))
}

func (spc) SetLowPowerWakeUpDelay(delay uint16) { reg(spcLPWKUPDELAY).Set(uint32(delay)) }

func (s spc) SetLowPowerModeRegulators(cfg hw.LowPowerRegulators) error {
	if s.Busy() {
		return errcode.Busy
	}
	if cfg.CoreLDOVolt > cfg.DCDCVoltage {
		return errcode.VoltageInvalid
	}
	r := reg(spcLPCFG)
	bit(r, cfgLPIREF, cfg.LPIREF)
	field(r, cfgBGModePos, 0b11, uint32(cfg.Bandgap))
	bit(r, cfgLPBuff, cfg.LPBuff)
	bit(r, cfgCoreIVS, cfg.CoreIVS)
	field(r, cfgDCDCLvlPos, 0b11, level(cfg.DCDCVoltage))
	field(r, cfgDCDCDSPos, 0b11, uint32(cfg.DCDCDrive))
	field(r, cfgSysLDODSPos, 0b1, uint32(cfg.SysLDODrive))
	field(r, cfgCoreLDOLvlPos, 0b11, level(cfg.CoreLDOVolt))
	field(r, cfgCoreLDODSPos, 0b1, uint32(cfg.CoreLDODrive))
	return nil
}

func (spc) DisableLowPowerModeVddCoreGlitchDetect(disable bool) {
	bit(reg(spcLPCFG), cfgGlitchOff, disable)
}

func (spc) EnableLowPowerModeCoreIVS(on bool) { bit(reg(spcLPCFG), cfgCoreIVS, on) }

func (spc) EnableCoreLDORegulator(on bool) { bit(reg(spcCNTRL), cntrlCORELDO, on) }

func (spc) SetLowPowerRequestConfig(cfg hw.LowPowerRequest) {
	v := uint32(cfg.Override) << lpreqOVPos
	if cfg.Enable {
		v |= lpreqOE
	}
	if cfg.Polarity == hw.LowTrue {
		v |= lpreqPOL
	}
	reg(spcLPREQCFG).Set(v)
}

func (spc) ClearPeriphIOIsolationFlag() { reg(spcSC).Set(scISOCLR) }

func (spc) ClearDomainLowPowerRequestFlag(d hw.Domain) {
	reg(spcPDSTATUS0 + 4*uintptr(d)).Set(pdLPREQ)
}

func (spc) ClearLowPowerRequest() { reg(spcSC).Set(scLPREQ) }

// level encodes a DCDC or core LDO voltage level; retention shares the
// low encoding.
func level(l hw.Level) uint32 {
	switch l {
	case hw.LevelMid:
		return 1
	case hw.LevelNormal:
		return 2
	case hw.LevelOverdrive:
		return 3
	}
	return 0
}

// The system LDO has two levels: normal (1.8 V) and overdrive (2.5 V).
func sysLevel(l hw.Level) uint32 {
	if l == hw.LevelOverdrive {
		return 1
	}
	return 0
}
