// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package nats connects the attendee auth service to NATS: the JetStream
// key-value index store, the index event publisher and the operator subjects.
package nats

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-attendee-auth-service/pkg/errors"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSClient owns the process-wide NATS connection and the attendee buckets bound to it
type NATSClient struct {
	conn    *nats.Conn
	config  Config
	buckets map[string]jetstream.KeyValue
}

// Close drains the subscriptions and closes the connection
func (c *NATSClient) Close() error {
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return err
	}
	return nil
}

// IsReady reports whether the connection can serve requests; used by /readyz
func (c *NATSClient) IsReady(ctx context.Context) error {
	if c.conn == nil {
		slog.ErrorContext(ctx, "NATS connection is not initialized")
		return errors.NewServiceUnavailable("NATS connection is not initialized")
	}
	if !c.conn.IsConnected() || c.conn.IsDraining() {
		slog.ErrorContext(ctx, "NATS connection is not ready",
			"connected", c.conn.IsConnected(),
			"draining", c.conn.IsDraining(),
		)
		return errors.NewServiceUnavailable("NATS connection is not established or is draining")
	}
	return nil
}

// QueueSubscribe registers handler on subject within the queue group so replicas share the load
func (c *NATSClient) QueueSubscribe(subject, queue string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if c.conn == nil || !c.conn.IsConnected() {
		return nil, errors.NewServiceUnavailable("NATS connection not ready")
	}
	return c.conn.QueueSubscribe(subject, queue, handler)
}

// Publish sends data on subject without waiting for a reply
func (c *NATSClient) Publish(subject string, data []byte) error {
	if c.conn == nil {
		return errors.NewServiceUnavailable("NATS connection not initialized")
	}
	return c.conn.Publish(subject, data)
}

// bucket returns a bound key-value bucket, or false when it was not requested at connect time
func (c *NATSClient) bucket(name string) (jetstream.KeyValue, bool) {
	kv, ok := c.buckets[name]
	return kv, ok
}

// bindBucket opens the named bucket, creating it with a single history entry when it is missing
func (c *NATSClient) bindBucket(ctx context.Context, js jetstream.JetStream, name string) error {
	kv, err := js.KeyValue(ctx, name)
	if stderrors.Is(err, jetstream.ErrBucketNotFound) {
		slog.InfoContext(ctx, "creating NATS key-value bucket", "bucket", name)
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      name,
			Description: "attendee auth lookup index",
			History:     1,
		})
	}
	if err != nil {
		slog.ErrorContext(ctx, "error binding NATS key-value bucket",
			"error", err,
			"bucket", name,
		)
		return err
	}

	c.buckets[name] = kv
	return nil
}

func connectOptions(ctx context.Context, config Config) []nats.Option {
	opts := []nats.Option{
		nats.Name(constants.ServiceName),
		nats.Timeout(config.Timeout),
		nats.MaxReconnects(config.MaxReconnect),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.WarnContext(ctx, "NATS disconnected", "error", err, "status", nc.Status())
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.InfoContext(ctx, "NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.ErrorContext(ctx, "async NATS error", "error", err, "subject", s.Subject, "queue", s.Queue)
				return
			}
			slog.ErrorContext(ctx, "async NATS error", "error", err)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed")
		}),
	}
	if config.CredentialsFile != "" {
		opts = append(opts, nats.UserCredentials(config.CredentialsFile))
	}
	return opts
}

// NewClient connects to NATS and binds every bucket listed in config.Buckets
func NewClient(ctx context.Context, config Config) (*NATSClient, error) {
	if config.URL == "" {
		return nil, errors.NewValidation("NATS URL is required")
	}

	slog.InfoContext(ctx, "connecting to NATS",
		"url", config.URL,
		"timeout", config.Timeout,
		"buckets", config.Buckets,
	)

	conn, err := nats.Connect(config.URL, connectOptions(ctx, config)...)
	if err != nil {
		return nil, errors.NewServiceUnavailable("failed to connect to NATS", err)
	}

	client := &NATSClient{
		conn:    conn,
		config:  config,
		buckets: make(map[string]jetstream.KeyValue, len(config.Buckets)),
	}

	if len(config.Buckets) > 0 {
		js, err := jetstream.New(conn)
		if err != nil {
			_ = client.Close()
			return nil, errors.NewServiceUnavailable("failed to create JetStream context", err)
		}
		for _, name := range config.Buckets {
			if err := client.bindBucket(ctx, js, name); err != nil {
				_ = client.Close()
				return nil, errors.NewServiceUnavailable("failed to bind NATS key-value bucket", err)
			}
		}
	}

	slog.InfoContext(ctx, "NATS client ready", "connected_url", conn.ConnectedUrl())
	return client, nil
}
