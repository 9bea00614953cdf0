package chainstore

import (
	"github.com/shardledger/shardd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CHST")
