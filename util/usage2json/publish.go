package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/pkg/errors"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"go.uber.org/zap"
)

// The whole document goes out as one Kafka message on <cluster>.gpu-usage, keyed by the newest
// timestamp in it, so that a dashboard consuming the topic can pick up each --last run as it
// happens.  The cluster name rides along in an Originator header.

func kafkaClientOpts(cfg *kafkaConfig) ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.broker),
		kgo.ClientID("usage2json-" + version),
	}
	if cfg.saslUser != "" || cfg.saslPassword != "" {
		opts = append(opts, kgo.SASL(plain.Auth{
			User: cfg.saslUser,
			Pass: cfg.saslPassword,
		}.AsMechanism()))
	}
	if cfg.caFile != "" {
		caCert, err := os.ReadFile(cfg.caFile)
		if err != nil {
			return nil, errors.Wrap(err, "kafka ca-file")
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, errors.Errorf("no certificates found in kafka ca-file %s", cfg.caFile)
		}
		opts = append(opts, kgo.DialTLSConfig(&tls.Config{RootCAs: caCertPool}))
	}
	return opts, nil
}

func usageRecord(cfg *kafkaConfig, key string, doc []byte) *kgo.Record {
	return &kgo.Record{
		Key:   []byte(key),
		Topic: cfg.topicName(),
		Value: doc,
		Headers: []kgo.RecordHeader{
			{Key: "Originator", Value: []byte(cfg.cluster)},
		},
	}
}

func publish(ctx context.Context, cfg *kafkaConfig, key string, doc []byte, log *zap.SugaredLogger) error {
	opts, err := kafkaClientOpts(cfg)
	if err != nil {
		return err
	}
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return errors.Wrap(err, "failed to create kafka client")
	}
	defer cl.Close()

	record := usageRecord(cfg, key, doc)
	log.Debugf("Producing %d bytes to %s at %s", len(doc), record.Topic, cfg.broker)
	if err := cl.ProduceSync(ctx, record).FirstErr(); err != nil {
		return errors.Wrapf(err, "publishing to %s", record.Topic)
	}
	log.Infof("Published %s to %s", key, record.Topic)
	return nil
}
