package analytics

import (
	"context"
	"time"

	"github.com/Jforjo/IsleofDucks-sub001/internal/storage"
)

// Service aggregates store records into the report the admin website reads.
type Service struct {
	store *storage.Store
}

func New(store *storage.Store) *Service {
	return &Service{store: store}
}

type Report struct {
	TotalEvents int            `json:"total_events"`
	ByLevel     map[string]int `json:"by_level"`
	ByEvent     map[string]int `json:"by_event"`
	TopDonors   []DonorLine    `json:"top_donors"`
	Bans        int            `json:"bans"`
}

type DonorLine struct {
	DiscordID string `json:"discord_id"`
	Name      string `json:"name"`
	Amount    int64  `json:"amount"`
}

func (s *Service) Report(ctx context.Context, guildID string, since time.Time) (Report, error) {
	logs, err := s.store.ListAuditLogs(ctx, guildID, since)
	if err != nil {
		return Report{}, err
	}

	report := Report{ByLevel: make(map[string]int), ByEvent: make(map[string]int)}
	for _, entry := range logs {
		report.TotalEvents++
		report.ByLevel[entry.Level]++
		report.ByEvent[entry.Event]++
	}

	bans, err := s.store.ListBans(ctx)
	if err != nil {
		return Report{}, err
	}
	report.Bans = len(bans)

	donors, err := s.store.TopDonors(ctx, 10)
	if err != nil {
		return Report{}, err
	}
	for _, donor := range donors {
		report.TopDonors = append(report.TopDonors, DonorLine{
			DiscordID: donor.DiscordID,
			Name:      donor.Name,
			Amount:    donor.Amount,
		})
	}
	return report, nil
}
