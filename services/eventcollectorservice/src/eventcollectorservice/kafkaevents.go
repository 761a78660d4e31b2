package eventcollectorservice

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/segmentio/kafka-go"
)

// BlockEventWriter publishes the events of one block, its BlockOver last.
type BlockEventWriter interface {
	WriteBlock(ctx context.Context, events []models.BlockEvent) error
	Close() error
}

type KafkaBlockEventWriterConfig struct {
	ChainID     uint
	KafkaServer string
	KafkaTopic  string
}

func (c *KafkaBlockEventWriterConfig) validate() error {
	if c.ChainID == 0 {
		return errors.New("KafkaBlockEventWriterConfig.ChainID cannot be empty")
	}
	if c.KafkaServer == "" {
		return errors.New("KafkaBlockEventWriterConfig.KafkaServer cannot be empty")
	}
	if c.KafkaTopic == "" {
		return errors.New("KafkaBlockEventWriterConfig.KafkaTopic cannot be empty")
	}
	return nil
}

type kafkaBlockEventWriter struct {
	key    []byte
	writer *kafka.Writer
}

func NewKafkaBlockEventWriter(config KafkaBlockEventWriterConfig) (BlockEventWriter, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	writer := kafka.Writer{
		Addr:  kafka.TCP(config.KafkaServer),
		Topic: config.KafkaTopic,
		// one key per chain keeps its events on a single partition, in order
		Balancer:     &kafka.Hash{},
		BatchTimeout: 1 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	return &kafkaBlockEventWriter{
		key:    []byte(strconv.FormatUint(uint64(config.ChainID), 10)),
		writer: &writer,
	}, nil
}

func blockEventMessages(key []byte, events []models.BlockEvent) ([]kafka.Message, error) {
	messages := make([]kafka.Message, len(events))
	for i, event := range events {
		eventJSON, err := json.Marshal(&event)
		if err != nil {
			return nil, err
		}
		messages[i] = kafka.Message{
			Key:   key,
			Value: eventJSON,
		}
	}
	return messages, nil
}

func (w *kafkaBlockEventWriter) WriteBlock(ctx context.Context, events []models.BlockEvent) error {
	messages, err := blockEventMessages(w.key, events)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, messages...)
}

func (w *kafkaBlockEventWriter) Close() error {
	return w.writer.Close()
}
