// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/shardledger/shardd/domain/consensus/model/externalapi"
	"github.com/shardledger/shardd/infrastructure/config"
)

const (
	defaultDataFile   = "bootstrap.dat"
	defaultProgress   = 10
	defaultDebugLevel = "info"
	defaultLogDirname = "logs"
	defaultLogFile    = "addblock.log"
	defaultErrLogFile = "addblock_err.log"
)

var (
	shardHomeDir   = btcutil.AppDataDir("shardd", false)
	defaultDataDir = filepath.Join(shardHomeDir, "data")
)

// configFlags defines the configuration options for addblock.
//
// See loadConfig for details on the configuration load process.
type configFlags struct {
	DataDir    string `short:"b" long:"datadir" description:"Location of the shardd data directory"`
	InFile     string `short:"i" long:"infile" description:"File containing the block(s)"`
	Legacy     bool   `long:"legacy" description:"The block file holds untagged transaction blocks"`
	NoScripts  bool   `long:"noscripts" description:"Skip script evaluation, for blocks whose scripts were already verified"`
	VerifyUTXO bool   `long:"verifyutxo" description:"Recompute the UTXO set commitment after importing"`
	Progress   int    `short:"p" long:"progress" description:"Show a progress message each time this number of seconds have passed -- Use 0 to disable progress announcements"`
	Profile    string `long:"profile" description:"Serve profiling and metrics over HTTP on the given port"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
	config.NetworkFlags
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// loadConfig initializes and parses the config using command line options.
func loadConfig(args []string) (*configFlags, error) {
	// Default config.
	cfg := &configFlags{
		DataDir:    defaultDataDir,
		InFile:     defaultDataFile,
		Progress:   defaultProgress,
		DebugLevel: defaultDebugLevel,
	}

	// Parse command line options.
	parser := flags.NewParser(cfg, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); !ok || flagsErr.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, err
	}

	err = cfg.ResolveNetwork(parser)
	if err != nil {
		return nil, err
	}

	if cfg.Legacy && cfg.NetParams().ContentType != externalapi.ContentTypeTransactions {
		str := "%s: --legacy can't be used on the %s network, whose blocks carry shard headers"
		err := errors.Errorf(str, "loadConfig", cfg.NetParams().Name)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	// Append the network type to the data directory so it is "namespaced"
	// per network. All data is specific to a network, so namespacing the
	// data directory means each individual piece of serialized data does
	// not have to worry about changing names per network and such.
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.NetParams().Name)

	// Ensure the specified block file exists.
	if !fileExists(cfg.InFile) {
		str := "%s: The specified block file [%s] does not exist"
		err := errors.Errorf(str, "loadConfig", cfg.InFile)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	return cfg, nil
}
