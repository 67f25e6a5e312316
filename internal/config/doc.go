// Package config provides loading and environment overlay for a duraq
// queue's configuration. It exposes a Default() baseline and helpers to
// build the Options a queue.Open call needs.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/duraq.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	q, _ := queue.Open(queue.Options{DataDir: cfg.DataDir, Fsync: cfg.FsyncMode()})
//	defer q.Close()
package config
