package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client caches rendered order views per caller scope (role, plus vendor id
// for vendor callers) and carries the short-lived invoice-refresh hint
// written after a paid confirmation.
type Client struct {
	rdb          *redis.Client
	viewTTL      time.Duration
	refreshDelay time.Duration
}

func Initialize(redisURL string, cacheTTLSeconds, invoiceRefreshSeconds int) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		rdb:          rdb,
		viewTTL:      time.Duration(cacheTTLSeconds) * time.Second,
		refreshDelay: time.Duration(invoiceRefreshSeconds) * time.Second,
	}, nil
}

func viewKey(orderID uint, scope string) string {
	return fmt.Sprintf("order_view:%d:%s", orderID, scope)
}

func (c *Client) GetOrderView(orderID uint, scope string) ([]byte, error) {
	ctx := context.Background()
	val, err := c.rdb.Get(ctx, viewKey(orderID, scope)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("order view not cached")
		}
		return nil, fmt.Errorf("failed to get order view: %w", err)
	}
	return val, nil
}

func (c *Client) SetOrderView(orderID uint, scope string, payload []byte) error {
	ctx := context.Background()
	return c.rdb.Set(ctx, viewKey(orderID, scope), payload, c.viewTTL).Err()
}

// InvalidateOrder drops every cached view of the order.
func (c *Client) InvalidateOrder(orderID uint) error {
	ctx := context.Background()
	iter := c.rdb.Scan(ctx, 0, fmt.Sprintf("order_view:%d:*", orderID), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to invalidate order view: %w", err)
		}
	}
	return iter.Err()
}

// ScheduleInvoiceRefresh leaves a hint that invoice generation may still be in
// flight, so callers re-fetch the order after a short delay. The core never
// blocks on invoice completion.
func (c *Client) ScheduleInvoiceRefresh(orderID uint) error {
	ctx := context.Background()
	key := fmt.Sprintf("invoice_refresh:%d", orderID)
	return c.rdb.Set(ctx, key, time.Now().Unix(), c.refreshDelay).Err()
}

// InvoiceRefreshDue reports whether a recent paid confirmation means the
// caller should re-fetch shortly.
func (c *Client) InvoiceRefreshDue(orderID uint) (bool, error) {
	ctx := context.Background()
	key := fmt.Sprintf("invoice_refresh:%d", orderID)
	_, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check invoice refresh: %w", err)
	}
	return true, nil
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
