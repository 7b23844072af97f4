package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/maua/florist-api/configs"
)

func NewGroup(c configs.Config) (sarama.ConsumerGroup, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = c.App.Name
	cfg.Version = sarama.V2_6_0_0
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	// courier confirmations sent while the service was down must still be applied
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	cfg.Net.DialTimeout = 5 * time.Second
	return sarama.NewConsumerGroup(c.Kafka.Brokers, c.Kafka.GroupID, cfg)
}
