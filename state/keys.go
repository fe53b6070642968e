package state

import "encoding/binary"

var (
	protocolStateKey      = []byte("lending/state")
	positionPrefix        = []byte("lending/position/")
	depositRequestPrefix  = []byte("lending/bridge/deposit/")
	withdrawRequestPrefix = []byte("lending/bridge/withdraw/")
	liquidationPrefix     = []byte("lending/liquidation/")
)

func positionKey(addr []byte) []byte {
	buf := make([]byte, len(positionPrefix)+len(addr))
	copy(buf, positionPrefix)
	copy(buf[len(positionPrefix):], addr)
	return buf
}

func requestKey(prefix []byte, id uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], id)
	return buf
}
