// `ingest-usage` listens for the GPU usage documents that `usage2json --kafka-broker` publishes and
// stores them in a directory tree keyed by date: each document is appended as one line of compact
// JSON to <data-dir>/yyyy/mm/dd/gpu-usage-<cluster>.json, the date taken from the newest timestamp
// in the document (the record key).
//
// Usage: ingest-usage --cluster name --data-dir dir [--broker host:port] [-v]

package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/MatthewBL/hpc-api/internal/logger"
	"github.com/MatthewBL/hpc-api/util/formats/usage"
)

var (
	cluster = pflag.String("cluster", "", "Cluster whose data we listen for")
	dataDir = pflag.String("data-dir", "", "Directory under which to store data keyed by date")
	broker  = pflag.String("broker", "localhost:9092", "Broker `host:port`")
	topic   = pflag.String("topic", "", "Topic to consume (default <cluster>.gpu-usage)")
	verbose = pflag.BoolP("verbose", "v", false, "Verbose")
)

func main() {
	pflag.Parse()
	if *cluster == "" {
		fmt.Fprintln(os.Stderr, "The --cluster is required")
		os.Exit(2)
	}
	if *dataDir == "" {
		fmt.Fprintln(os.Stderr, "The --data-dir is required")
		os.Exit(2)
	}
	if *topic == "" {
		*topic = *cluster + ".gpu-usage"
	}
	level := logger.LevelQuiet
	if *verbose {
		level = logger.LevelVerbose
	}
	log := logger.New("ingest-usage", level).With("cluster", *cluster)
	defer log.Sync()

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(*broker),
		kgo.ConsumerGroup("gpu-usage-ingest"),
		kgo.ConsumeTopics(*topic),
	)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer cl.Close()

	ctx := context.Background()
	for {
		fetches := cl.PollFetches(ctx)
		if errs := fetches.Errors(); len(errs) > 0 {
			// Fetch errors are retried internally, those returned here are not retriable.
			log.Warnf("SOFT ERROR: Failed to fetch data! %v", errs)
		}
		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			log.Infof("%s: %d bytes for %s", record.Topic, len(record.Value), record.Key)
			if err := storeDocument(*dataDir, *cluster, string(record.Key), record.Value); err != nil {
				log.Warnf("SOFT ERROR: Storing record failed: %v", err)
			}
		}
		if err := cl.CommitUncommittedOffsets(ctx); err != nil {
			log.Warnf("SOFT ERROR: Commit records failed: %v", err)
		}
	}
}

// The key is empty when the document has no timestamps, and then the document is empty too and
// there is nothing worth keeping.

func storeDocument(dataDir, cluster, key string, doc []byte) error {
	if key == "" {
		return nil
	}
	if !gjson.ValidBytes(doc) {
		return errors.Errorf("invalid JSON for %s", key)
	}
	filename, err := documentPath(dataDir, cluster, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path.Dir(filename), 0o777); err != nil {
		return errors.Wrap(err, "creating data directory")
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o666)
	if err != nil {
		return errors.Wrap(err, "opening data file")
	}
	defer f.Close()
	line := pretty.Ugly(doc)
	line = append(line, '\n')
	_, err = f.Write(line)
	return errors.Wrapf(err, "writing %s", filename)
}

func documentPath(dataDir, cluster, key string) (string, error) {
	ts, ok := usage.ParseTimestampLine(key)
	if !ok {
		return "", errors.Errorf("bad record key %q", key)
	}
	t, err := time.Parse(usage.TimestampLayout, strings.Join(strings.Fields(ts), " "))
	if err != nil {
		return "", errors.Wrapf(err, "record key %q", key)
	}
	return path.Join(dataDir, t.Format("2006/01/02"), "gpu-usage-"+cluster+".json"), nil
}
