package indexerservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexkalak/go_dex_metrics/common/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func (s *indexerService) Start(ctx context.Context) error {
	if err := s.restore(); err != nil {
		return err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{s.config.KafkaServer},
		Topic:   s.config.KafkaBlockEventsTopic,
		GroupID: s.config.KafkaConsumerGroup,
		MaxWait: time.Second,
	})
	defer reader.Close()

	lastTimeLogged := time.Now()
	msgCount := 0

	s.logger.Info("listening for block events", zap.String("topic", s.config.KafkaBlockEventsTopic))
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("failed to fetch message", zap.Error(err))
			continue
		}

		msgCount++
		if time.Since(lastTimeLogged) > time.Second {
			s.logger.Debug("block events consumed", zap.Int("messages", msgCount))
			msgCount = 0
			lastTimeLogged = time.Now()
		}

		block, done, err := s.handleMessage(m.Value)
		if err != nil {
			s.logger.Warn("block event", zap.Int64("offset", m.Offset), zap.Error(err))
		}
		if !done {
			continue
		}

		// a failed block stops the service, the next start resumes from the checkpoint
		if err := s.handleBlock(block, m.Offset); err != nil {
			return err
		}
		if err := reader.CommitMessages(ctx, m); err != nil {
			s.logger.Error("failed to commit offset", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

func (s *indexerService) handleMessage(value []byte) (models.Block, bool, error) {
	event := models.BlockEvent{}
	if err := json.Unmarshal(value, &event); err != nil {
		return models.Block{}, false, fmt.Errorf("decode block event: %w", err)
	}

	block, done, err := s.assembler.add(event)
	if errors.Is(err, ErrForeignChain) {
		return models.Block{}, false, nil
	}
	return block, done, err
}
