package main

import (
	"github.com/shardledger/shardd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("ADBK")
