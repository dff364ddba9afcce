// Package messaging 将行情与盘口推送到 Kafka，供展示侧订阅者消费
package messaging

import (
	"context"
	"fmt"

	"github.com/stockr/trading/internal/marketdata/domain"
	"github.com/stockr/trading/pkg/mq"
)

// KafkaQuotePublisher 行情推送的 Kafka 实现，以股票代码为分区 key
type KafkaQuotePublisher struct {
	producer       *mq.KafkaProducer
	quoteTopic     string
	orderBookTopic string
}

// NewKafkaQuotePublisher 创建行情推送器
func NewKafkaQuotePublisher(producer *mq.KafkaProducer, quoteTopic, orderBookTopic string) domain.QuotePublisher {
	return &KafkaQuotePublisher{
		producer:       producer,
		quoteTopic:     quoteTopic,
		orderBookTopic: orderBookTopic,
	}
}

// PublishQuote 推送一条实时行情
func (p *KafkaQuotePublisher) PublishQuote(ctx context.Context, quote *domain.Quote) error {
	if err := p.producer.SendMessage(ctx, p.quoteTopic, quote.StockCode, quote); err != nil {
		return fmt.Errorf("failed to publish quote: %w", err)
	}
	return nil
}

// PublishOrderBook 推送一份十档盘口快照
func (p *KafkaQuotePublisher) PublishOrderBook(ctx context.Context, book *domain.OrderBook) error {
	if err := p.producer.SendMessage(ctx, p.orderBookTopic, book.StockCode, book); err != nil {
		return fmt.Errorf("failed to publish order book: %w", err)
	}
	return nil
}
