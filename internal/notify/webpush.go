package notify

import (
	"context"
	"fmt"
	"io"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/mmynk/homebase/internal/models"
)

// WebPusher sends VAPID-signed web push messages.
type WebPusher struct {
	subscriber string
	publicKey  string
	privateKey string
	ttl        int
}

// NewWebPusher creates a pusher for the given VAPID key pair.
func NewWebPusher(subscriber, publicKey, privateKey string, ttlSeconds int) *WebPusher {
	return &WebPusher{
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
		ttl:        ttlSeconds,
	}
}

// Push implements Pusher.
func (p *WebPusher) Push(ctx context.Context, sub *models.PushSubscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		Subscriber:      p.subscriber,
		VAPIDPublicKey:  p.publicKey,
		VAPIDPrivateKey: p.privateKey,
		TTL:             p.ttl,
	})
	if err != nil {
		return 0, fmt.Errorf("send web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// GenerateVAPIDKeys returns a new base64url-encoded VAPID key pair.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate VAPID keys: %w", err)
	}
	return publicKey, privateKey, nil
}
