// SPDX-License-Identifier: MIT

// Usage2json converts the plain text cluster usage log into nested JSON indexed by timestamp,
// user, gpu type and job id.
//
// Usage: usage2json -i uso_cluster.txt -o usage.json [options]
//
// Options:
//
//	-i, --input file     The usage log (required)
//	-o, --output file    Where to write the JSON, "-" for stdout (required)
//	    --indent n       JSON indentation, default 2
//	    --last           Only the most recent timestamp block, found without reading the whole log
//	-c, --config file    Ini file with defaults, see config.go
//	    --kafka-broker   Also publish the document to this Kafka broker
//	    --kafka-topic    Topic to publish to, default <cluster>.gpu-usage
//	    --cluster name   Cluster name for the default topic and the Originator header
//	-v                   Verbose logging
//	-d                   Debug logging
//
// The input consists of blocks like this, one per minute:
//
//	Thu Dec 18 04:37:01 2025
//	JOBID               USER                TRES_ALLOC                                                      STATE
//	61040               matbwyler           cpu=32,mem=64G,node=1,billing=32,gres/gpu=4,gres/gpu:a40=4      RUNNING
//
// and the output for that block is
//
//	{
//	  "Thu Dec 18 04:37:01 2025": {
//	    "matbwyler": {
//	      "a40": {
//	        "61040": {
//	          "gpu_number": 4,
//	          "cpu": 32,
//	          "mem": "64G",
//	          "node": 1,
//	          "billing": 32,
//	          "state": "RUNNING"
//	        }
//	      }
//	    }
//	  }
//	}
//
// Only jobs with a typed GPU in their TRES (gres/gpu:a40 and so on) are included.  Lines that
// can't be understood are skipped silently.  A missing input file or an unwritable output is fatal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/MatthewBL/hpc-api/internal/logger"
	"github.com/MatthewBL/hpc-api/util/formats/usage"
)

var errUsage = errors.New("usage error")

type options struct {
	input       string
	output      string
	indent      int
	last        bool
	configFile  string
	verbose     bool
	debug       bool
	showVersion bool
	kafka       kafkaConfig
}

func (o *options) logLevel() logger.Level {
	switch {
	case o.debug:
		return logger.LevelDebug
	case o.verbose:
		return logger.LevelVerbose
	default:
		return logger.LevelQuiet
	}
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err == pflag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\nTry --help\n", err)
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("usage2json version %s\n", version)
		return
	}

	log := logger.New("usage2json", opts.logLevel())
	defer log.Sync()
	if err := run(opts, log); err != nil {
		log.Errorf("%v", err)
		log.Sync()
		os.Exit(1)
	}
}

func parseOptions(args []string) (*options, error) {
	opts := &options{
		indent: defaultIndent,
		kafka: kafkaConfig{
			cluster: defaultCluster,
			timeout: defaultKafkaTimeout,
		},
	}
	flags := pflag.NewFlagSet("usage2json", pflag.ContinueOnError)
	flags.Usage = func() {
		out := os.Stderr
		fmt.Fprintf(out, "usage2json version %s\n", version)
		fmt.Fprintf(out, "Usage: usage2json -i input-file -o output-file [options]\n")
		fmt.Fprintf(out, "Options:\n")
		flags.PrintDefaults()
	}
	flags.StringVarP(&opts.input, "input", "i", "", "Path to the usage log (required)")
	flags.StringVarP(&opts.output, "output", "o", "", "Path to write JSON output, - for stdout (required)")
	flags.IntVar(&opts.indent, "indent", defaultIndent, "JSON indentation")
	flags.BoolVar(&opts.last, "last", false, "Only include the latest timestamp block, for faster processing")
	flags.StringVarP(&opts.configFile, "config", "c", "", "Ini file with default settings")
	flags.StringVar(&opts.kafka.broker, "kafka-broker", "", "Publish the output to this Kafka broker `host:port`")
	flags.StringVar(&opts.kafka.topic, "kafka-topic", "", "Kafka topic (default <cluster>.gpu-usage)")
	flags.StringVar(&opts.kafka.cluster, "cluster", defaultCluster, "Cluster name")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Debug logging")
	flags.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if opts.showVersion {
		return opts, nil
	}
	if rest := flags.Args(); len(rest) > 0 {
		return nil, errors.Wrapf(errUsage, "unexpected arguments %v", rest)
	}
	if opts.configFile != "" {
		if err := readConfig(opts.configFile, opts, flags); err != nil {
			return nil, err
		}
	}
	if opts.input == "" {
		return nil, errors.Wrap(errUsage, "the --input is required")
	}
	if opts.output == "" {
		return nil, errors.Wrap(errUsage, "the --output is required")
	}
	return opts, nil
}

func run(opts *options, log *zap.SugaredLogger) error {
	var (
		result *usage.Result
		stats  usage.Stats
		err    error
	)
	if opts.last {
		result, stats, err = usage.ParseLastBlock(opts.input, usage.TailOptions{Log: log})
	} else {
		result, stats, err = usage.ParseFile(opts.input)
	}
	if err != nil {
		return err
	}
	log.Infof("%s: %d timestamps, %d gpu jobs kept", opts.input, result.Len(), stats.Kept)
	log.Debugf(
		"%d lines, %d headers, %d records, %d without typed gpu, %d before any timestamp, %d unrecognized",
		stats.Lines, stats.Headers, stats.Records, stats.NoGpu, stats.Orphans, stats.Unrecognized,
	)

	doc, err := usage.EncodeJSON(result, opts.indent)
	if err != nil {
		return errors.Wrap(err, "encoding JSON")
	}
	if err := writeOutput(opts.output, doc); err != nil {
		return err
	}

	if opts.kafka.enabled() {
		key, _, _ := result.Last()
		ctx, cancel := context.WithTimeout(context.Background(), opts.kafka.timeout)
		defer cancel()
		if err := publish(ctx, &opts.kafka, key, doc, log); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(fn string, doc []byte) error {
	if fn == "-" {
		_, err := os.Stdout.Write(doc)
		return err
	}
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrap(err, "output file")
	}
	_, err = f.Write(doc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "writing %s", fn)
}
