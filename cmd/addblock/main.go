// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shardledger/shardd/domain/consensus/datastructures/chainstore"
	"github.com/shardledger/shardd/domain/consensus/model"
	"github.com/shardledger/shardd/domain/consensus/processes/blockprocessor"
	"github.com/shardledger/shardd/domain/consensus/processes/shardheadervalidator"
	"github.com/shardledger/shardd/domain/consensus/utils/timesource"
	"github.com/shardledger/shardd/domain/consensus/utils/txscript"
	"github.com/shardledger/shardd/infrastructure/logger"
	"github.com/shardledger/shardd/infrastructure/metrics"
	"github.com/shardledger/shardd/infrastructure/os/execenv"
	"github.com/shardledger/shardd/infrastructure/os/signal"
	"github.com/shardledger/shardd/util/panics"
	"github.com/shardledger/shardd/util/profiling"
)

func main() {
	execenv.Initialize()

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	logDir := filepath.Join(shardHomeDir, defaultLogDirname, cfg.NetParams().Name)
	logger.InitLog(filepath.Join(logDir, defaultLogFile), filepath.Join(logDir, defaultErrLogFile))
	defer logger.BackendLog.Close()
	defer panics.HandlePanic(log, nil)

	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = realMain(cfg)
	if err != nil {
		log.Errorf("%+v", err)
		logger.BackendLog.Close()
		os.Exit(1)
	}
}

func realMain(cfg *configFlags) error {
	params := cfg.NetParams()

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return err
	}
	if cfg.Profile != "" {
		profiling.Start(cfg.Profile, log, map[string]http.Handler{"/metrics": m.Handler()})
	}

	log.Infof("Loading chain store from %s", cfg.DataDir)
	store, err := chainstore.Open(cfg.DataDir, params.GenesisBlock)
	if err != nil {
		return err
	}
	defer store.Close()

	level := model.VerificationLevelFull
	if cfg.NoScripts {
		level = model.VerificationLevelNoScripts
	}
	processor := blockprocessor.New(params, level, store, txscript.NewEvaluator(),
		shardheadervalidator.New(params.ShardCount), timesource.New(), m)

	inFile, err := os.Open(cfg.InFile)
	if err != nil {
		return err
	}
	defer inFile.Close()

	ctx, cancel := signal.InterruptContext(context.Background())
	defer cancel()

	log.Infof("Starting import of %s on %s with %s verification", cfg.InFile, params.Name, level)
	importer := newBlockImporter(inFile, params, processor, cfg.Legacy, time.Duration(cfg.Progress)*time.Second)
	results, err := importer.Import(ctx)
	if results != nil {
		log.Infof("Processed a total of %d blocks (%d imported, %d already known)",
			results.blocksProcessed, results.blocksImported,
			results.blocksProcessed-results.blocksImported)
	}
	if err != nil {
		return err
	}

	if cfg.VerifyUTXO {
		return store.VerifyUTXOCommitment()
	}
	return nil
}
