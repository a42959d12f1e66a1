package crsf

import "github.com/sigurn/crc8"

var crcTable = crc8.MakeTable(crc8.CRC8_DVB_S2)

// CRC8 computes CRC8 DVB-S2 (poly 0xD5, init 0, not reflected).
func CRC8(b []byte) byte {
	return crc8.Checksum(b, crcTable)
}
