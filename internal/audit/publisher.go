package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"paygate/internal/domain"
)

// KafkaPublisher mirrors audit entries to a topic for downstream compliance
// consumers. It buffers through an inbox channel and produces from one
// background goroutine so Append never blocks on the broker; when the inbox
// is full the entry is dropped and counted, never the transition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	inbox  chan domain.AuditLog
	done   chan struct{}
}

// KafkaConfig configures the mirror publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Buffer  int
}

// NewKafkaPublisher connects, ensures the topic exists, and starts the
// produce loop. Close flushes and stops it.
func NewKafkaPublisher(ctx context.Context, cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, err
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, cfg.Topic); err != nil {
		// Already-exists is the normal case after first boot; anything
		// else still only degrades the mirror, so log and continue.
		logger.Debug("audit topic create", "topic", cfg.Topic, "result", err)
	}

	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 1024
	}
	p := &KafkaPublisher{
		client: client,
		topic:  cfg.Topic,
		logger: logger,
		inbox:  make(chan domain.AuditLog, buffer),
		done:   make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Publish enqueues an entry for the produce loop. Non-blocking.
func (p *KafkaPublisher) Publish(_ context.Context, entry domain.AuditLog) {
	select {
	case p.inbox <- entry:
	default:
		p.logger.Warn("audit mirror inbox full, entry dropped", "entry_id", entry.ID)
	}
}

func (p *KafkaPublisher) run() {
	for entry := range p.inbox {
		payload, err := json.Marshal(entry)
		if err != nil {
			p.logger.Error("marshal audit entry", "error", err)
			continue
		}
		record := &kgo.Record{
			Topic: p.topic,
			Key:   []byte(entry.PaymentID),
			Value: payload,
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			p.logger.Warn("audit mirror produce failed", "entry_id", entry.ID, "error", err)
		}
		cancel()
	}
	close(p.done)
}

// Close drains the inbox and releases the client.
func (p *KafkaPublisher) Close() {
	close(p.inbox)
	<-p.done
	p.client.Close()
}
