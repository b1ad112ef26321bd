// Package dns registers the wormhole's public address in Cloudflare.
// Registration is drift-aware: an existing A record with the right content is
// left alone, a stale one is updated in place, a missing one is created.
package dns

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudflare/cloudflare-go"

	"github.com/wormgate/wormgate/errors"
)

// Registrar manages the topology's DNS record
type Registrar interface {
	// Ensure makes the A record for name point at address
	Ensure(ctx context.Context, name, address string) error

	// Remove deletes the A record for name; a missing record is not an error
	Remove(ctx context.Context, name string) error
}

// api is the slice of the Cloudflare client this package uses; it exists so
// tests can substitute a fake.
type api interface {
	ListDNSRecords(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.ListDNSRecordsParams) ([]cloudflare.DNSRecord, *cloudflare.ResultInfo, error)
	CreateDNSRecord(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.CreateDNSRecordParams) (cloudflare.DNSRecord, error)
	UpdateDNSRecord(ctx context.Context, rc *cloudflare.ResourceContainer, params cloudflare.UpdateDNSRecordParams) (cloudflare.DNSRecord, error)
	DeleteDNSRecord(ctx context.Context, rc *cloudflare.ResourceContainer, recordID string) error
}

// Cloudflare implements Registrar against one Cloudflare zone
type Cloudflare struct {
	api    api
	zoneID string
}

// NewCloudflare creates a Registrar using global API key authentication
func NewCloudflare(email, apiKey, zoneID string) (*Cloudflare, error) {
	client, err := cloudflare.New(apiKey, email)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfiguration, "failed to create cloudflare client")
	}
	return &Cloudflare{
		api:    client,
		zoneID: zoneID,
	}, nil
}

// find returns the A record for name, or nil when absent
func (c *Cloudflare) find(ctx context.Context, name string) (*cloudflare.DNSRecord, error) {
	records, _, err := c.api.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(c.zoneID),
		cloudflare.ListDNSRecordsParams{Type: "A", Name: name})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrBackend,
			fmt.Sprintf("failed to list DNS records for zone %s", c.zoneID))
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Ensure implements Registrar.Ensure
func (c *Cloudflare) Ensure(ctx context.Context, name, address string) error {
	record, err := c.find(ctx, name)
	if err != nil {
		return err
	}

	rc := cloudflare.ZoneIdentifier(c.zoneID)
	switch {
	case record == nil:
		log.Printf("[DNS] creating A record %s -> %s", name, address)
		_, err := c.api.CreateDNSRecord(ctx, rc, cloudflare.CreateDNSRecordParams{
			Type:    "A",
			Name:    name,
			Content: address,
			Proxied: cloudflare.BoolPtr(false),
			TTL:     1,
		})
		if err != nil {
			return errors.Wrap(err, errors.ErrBackend,
				fmt.Sprintf("failed to create A record %s", name))
		}

	case record.Content == address:
		log.Printf("[DNS] A record %s already points at %s", name, address)

	default:
		log.Printf("[DNS] updating A record %s: %s -> %s", name, record.Content, address)
		_, err := c.api.UpdateDNSRecord(ctx, rc, cloudflare.UpdateDNSRecordParams{
			ID:      record.ID,
			Type:    "A",
			Name:    name,
			Content: address,
			Proxied: cloudflare.BoolPtr(false),
		})
		if err != nil {
			return errors.Wrap(err, errors.ErrBackend,
				fmt.Sprintf("failed to update A record %s", name))
		}
	}

	return nil
}

// Remove implements Registrar.Remove
func (c *Cloudflare) Remove(ctx context.Context, name string) error {
	record, err := c.find(ctx, name)
	if err != nil {
		return err
	}
	if record == nil {
		log.Printf("[DNS] no A record for %s, nothing to remove", name)
		return nil
	}

	log.Printf("[DNS] removing A record %s (%s)", name, record.Content)
	if err := c.api.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(c.zoneID), record.ID); err != nil {
		return errors.Wrap(err, errors.ErrBackend,
			fmt.Sprintf("failed to delete A record %s", name))
	}
	return nil
}
