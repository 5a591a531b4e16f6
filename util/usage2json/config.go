package main

import (
	"os"
	"time"

	"github.com/lars-t-hansen/ini"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// The config file is on .ini format with these sections, all optional:
//
//	[output]
//	indent = ...          # default 2
//	last = ...            # default false
//
//	[kafka]
//	broker-address = ...  # default none, which disables publishing
//	cluster = ...         # default "cluster"
//	topic = ...           # default <cluster>.gpu-usage
//	sasl-user = ...       # default none
//	sasl-password = ...   # default none
//	ca-file = ...         # default none
//	timeout = ...         # default 30 seconds
//
// Environment variables in string values are expanded.  Settings on the command line override the
// config file.

const (
	defaultIndent       = 2
	defaultCluster      = "cluster"
	defaultTopicTag     = "gpu-usage"
	defaultKafkaTimeout = 30 * time.Second
)

type kafkaConfig struct {
	broker       string
	cluster      string
	topic        string
	saslUser     string
	saslPassword string
	caFile       string
	timeout      time.Duration
}

func (k *kafkaConfig) enabled() bool {
	return k.broker != ""
}

func (k *kafkaConfig) topicName() string {
	if k.topic != "" {
		return k.topic
	}
	return k.cluster + "." + defaultTopicTag
}

func readConfig(fn string, opts *options, flags *pflag.FlagSet) error {
	f, err := os.Open(fn)
	if err != nil {
		return errors.Wrap(err, "config file")
	}
	defer f.Close()

	iniParser := ini.NewParser()
	outputSect := iniParser.AddSection("output")
	oIndent := outputSect.AddUint64("indent")
	oLast := outputSect.AddBool("last")
	kafkaSect := iniParser.AddSection("kafka")
	kBrokerAddr := kafkaSect.AddString("broker-address")
	kCluster := kafkaSect.AddString("cluster")
	kTopic := kafkaSect.AddString("topic")
	kSaslUser := kafkaSect.AddString("sasl-user")
	kSaslPassword := kafkaSect.AddString("sasl-password")
	kCaFile := kafkaSect.AddString("ca-file")
	kTimeoutSec := kafkaSect.AddUint64("timeout")
	store, err := iniParser.Parse(f)
	if err != nil {
		return errors.Wrapf(err, "could not parse config file %s", fn)
	}

	// A setting applies only if it is in the file and the corresponding flag was not given.
	applyString := func(sp *string, field *ini.Field, flagName string) {
		if field.Present(store) && !flags.Changed(flagName) {
			*sp = os.ExpandEnv(field.StringVal(store))
		}
	}
	if oIndent.Present(store) && !flags.Changed("indent") {
		opts.indent = int(oIndent.Uint64Val(store))
	}
	if oLast.Present(store) && !flags.Changed("last") {
		opts.last = oLast.BoolVal(store)
	}
	applyString(&opts.kafka.broker, kBrokerAddr, "kafka-broker")
	applyString(&opts.kafka.cluster, kCluster, "cluster")
	applyString(&opts.kafka.topic, kTopic, "kafka-topic")
	applyString(&opts.kafka.saslUser, kSaslUser, "")
	applyString(&opts.kafka.saslPassword, kSaslPassword, "")
	applyString(&opts.kafka.caFile, kCaFile, "")
	if kTimeoutSec.Present(store) {
		opts.kafka.timeout = time.Duration(kTimeoutSec.Uint64Val(store)) * time.Second
	}
	return nil
}
