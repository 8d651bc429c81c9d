// Package search publishes product index updates for the external search service.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	productdom "storefront/internal/domain/product"
	"storefront/internal/infra/logging"
)

var ErrDisabled = errors.New("search: indexer disabled")

// publishBatchTimeout bounds how long a synchronous write waits for its batch
// to fill. IndexProduct runs inside order and product requests.
const publishBatchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaIndexer implements product.Indexer by publishing one message per product,
// keyed by product id so updates for a product stay ordered.
type KafkaIndexer struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
	now    func() time.Time
}

// NewKafkaIndexer returns nil when no broker is configured; the usecases treat a
// nil indexer as "indexing skipped".
func NewKafkaIndexer(brokers []string, topic string, logger *zap.Logger) *KafkaIndexer {
	var addrs []string
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: publishBatchTimeout,
		WriteTimeout: 5 * time.Second,
	}
	return newKafkaIndexer(w, topic, logger)
}

func newKafkaIndexer(w messageWriter, topic string, logger *zap.Logger) *KafkaIndexer {
	return &KafkaIndexer{
		writer: w,
		topic:  topic,
		logger: logging.OrNop(logger).Named("search"),
		now:    time.Now,
	}
}

// IndexProduct publishes doc as JSON.
func (k *KafkaIndexer) IndexProduct(ctx context.Context, doc productdom.IndexDocument) error {
	if k == nil || k.writer == nil {
		return ErrDisabled
	}
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("search: index document without id")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("search: encode %s: %w", doc.ID, err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(doc.ID), Value: data, Time: k.now().UTC()}); err != nil {
		return fmt.Errorf("search: publish %s: %w", doc.ID, err)
	}
	k.logger.Debug("product indexed", zap.String("productId", doc.ID), zap.String("topic", k.topic))
	return nil
}

func (k *KafkaIndexer) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
