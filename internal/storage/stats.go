package storage

import "github.com/ledgerwave/Solana-Trading-Bot/internal/domain"

// AccumulateStats folds one outcome into the running counters. Terminal
// records (confirmed, failed, skipped) count as observed; Sent records count
// as submissions only. Per-kind and volume counters track confirmed mirrors.
func AccumulateStats(s *domain.Stats, o domain.MirrorOutcome) {
	switch o.Status {
	case domain.StatusSent:
		s.TotalMirrored++
	case domain.StatusConfirmed:
		s.TotalObserved++
		s.TotalConfirmed++
		s.VolumeLamports += o.Lamports
		switch o.Kind {
		case domain.KindNativeTransfer:
			s.NativeMirrored++
		case domain.KindTokenTransfer:
			s.TokenMirrored++
		case domain.KindProgram:
			s.ProgramMirrored++
		}
	case domain.StatusFailed:
		s.TotalObserved++
		s.TotalFailed++
	case domain.StatusSkipped:
		s.TotalObserved++
		s.TotalSkipped++
	}

	if o.CompletedAt > s.LastActivity {
		s.LastActivity = o.CompletedAt
	}
}
