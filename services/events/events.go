// Package eventsvc publishes domain events. Failures are logged and never surface to callers.
package eventsvc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
)

const publishTimeout = 5 * time.Second

// NewPublisher publishes to SNS when a topic is configured, to the logger otherwise.
func NewPublisher(ctx context.Context, conf *core.Config, logger core.Logger) (core.EventPublisher, error) {
	if conf.Events.SNSTopicARN == "" || conf.TestMode {
		return NewLogPublisher(logger), nil
	}
	awsConf, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.Events.AWSRegion))
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}
	return NewSNSPublisher(sns.NewFromConfig(awsConf), conf.Events.SNSTopicARN, logger), nil
}

type logPublisher struct {
	logger core.Logger
}

var _ core.EventPublisher = (*logPublisher)(nil)

func NewLogPublisher(logger core.Logger) core.EventPublisher {
	return &logPublisher{logger: logger}
}

func (p logPublisher) Publish(_ context.Context, events ...core.Event) {
	for _, ev := range events {
		p.logger.Info("event "+ev.Name, map[string]interface{}{
			"entity_id": ev.EntityID,
			"actor_id":  ev.ActorID,
		})
	}
}

// SNSClient is the part of the SNS API used for publishing.
type SNSClient interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSPublisher struct {
	client   SNSClient
	topicARN string
	logger   core.Logger
}

var _ core.EventPublisher = (*SNSPublisher)(nil)

func NewSNSPublisher(client SNSClient, topicARN string, logger core.Logger) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN, logger: logger}
}

// Publish sends every event concurrently and waits for all of them.
// The caller's cancellation is ignored so that events outlive the request that produced them.
func (p *SNSPublisher) Publish(ctx context.Context, events ...core.Event) {
	ctx, cancel := context.WithTimeout(detach(ctx), publishTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func(ev core.Event) {
			defer wg.Done()
			if err := p.publish(ctx, ev); err != nil {
				p.logger.Error("publishing event "+ev.Name, err, map[string]interface{}{"entity_id": ev.EntityID})
			}
		}(ev)
	}
	wg.Wait()
}

func (p *SNSPublisher) publish(ctx context.Context, ev core.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		Message:  aws.String(string(body)),
		TopicArn: aws.String(p.topicARN),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String(ev.Name)},
		},
	})
	return errors.Wrap(err, "sns publish")
}

type detached struct {
	context.Context
	parent context.Context
}

func (d detached) Value(key interface{}) interface{} {
	return d.parent.Value(key)
}

// detach keeps the values of `ctx` but drops its deadline and cancellation.
func detach(ctx context.Context) context.Context {
	return detached{Context: context.Background(), parent: ctx}
}
