package contracts

import "context"

// InfoProvider fetches the raw field map for a ticker
// ⭐ SSOT: 시장 데이터 제공자 인터페이스
type InfoProvider interface {
	FetchInfo(ctx context.Context, ticker string) (RawRecord, error)
}

// PeerSource lists candidate peer tickers for a sector
// ⭐ SSOT: 피어 유니버스 인터페이스
type PeerSource interface {
	PeersFor(ctx context.Context, sector string) ([]string, error)
	Sectors(ctx context.Context) ([]string, error)
}

// ConstituentStore persists the peer universe
type ConstituentStore interface {
	Upsert(ctx context.Context, constituents []Constituent) (int, error)
	ListBySector(ctx context.Context, sector string) ([]string, error)
	Sectors(ctx context.Context) ([]string, error)
}
