// services/sui_service.go
package services

import (
	"context"
	"strconv"
	"time"

	"clan-missions/config"
	"clan-missions/sui"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var chainMints = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chain_mints_total",
	Help: "Move mint calls submitted to the Sui fullnode, by kind and result.",
}, []string{"kind", "result"})

// NFTMetadata is the display data stored on a minted certificate or badge.
type NFTMetadata struct {
	Name        string
	Description string
	ImageURL    string
}

type MintResult struct {
	Digest   string `json:"tx_digest"`
	ObjectID string `json:"object_id,omitempty"`
}

// Minter is the chain surface the domain services depend on.
type Minter interface {
	MintCertificate(ctx context.Context, recipient string, meta NFTMetadata) (*MintResult, error)
	MintBadge(ctx context.Context, recipient string, meta NFTMetadata) (*MintResult, error)
	MintToken(ctx context.Context, recipient string, amount uint64) (*MintResult, error)
}

// SuiService signs every call with the single platform key. It holds no mutable state.
type SuiService struct {
	Client *sui.Client
	Signer *sui.Signer
	Config config.SuiConfig
}

func NewSuiService(client *sui.Client, signer *sui.Signer, cfg config.SuiConfig) *SuiService {
	log.WithFields(log.Fields{"address": signer.Address(), "package": cfg.PackageID}).Info("🔗 [Sui] signer ready")
	return &SuiService{Client: client, Signer: signer, Config: cfg}
}

// MintCertificate calls certificate::mint(admin_cap, recipient, name, description, image_url).
func (s *SuiService) MintCertificate(ctx context.Context, recipient string, meta NFTMetadata) (*MintResult, error) {
	return s.mint(ctx, "certificate", sui.MoveCall{
		PackageID: s.Config.PackageID,
		Module:    s.Config.CertificateModule,
		Function:  "mint",
		Arguments: []any{s.Config.AdminCapID, recipient, meta.Name, meta.Description, meta.ImageURL},
		GasBudget: s.Config.GasBudget,
	})
}

// MintBadge calls badge::mint with the same argument layout as certificates.
func (s *SuiService) MintBadge(ctx context.Context, recipient string, meta NFTMetadata) (*MintResult, error) {
	return s.mint(ctx, "badge", sui.MoveCall{
		PackageID: s.Config.PackageID,
		Module:    s.Config.BadgeModule,
		Function:  "mint",
		Arguments: []any{s.Config.AdminCapID, recipient, meta.Name, meta.Description, meta.ImageURL},
		GasBudget: s.Config.GasBudget,
	})
}

// MintToken calls token::mint(treasury_cap, amount, recipient). u64 goes over the wire as a string.
func (s *SuiService) MintToken(ctx context.Context, recipient string, amount uint64) (*MintResult, error) {
	return s.mint(ctx, "token", sui.MoveCall{
		PackageID: s.Config.PackageID,
		Module:    s.Config.TokenModule,
		Function:  "mint",
		Arguments: []any{s.Config.TreasuryCapID, strconv.FormatUint(amount, 10), recipient},
		GasBudget: s.Config.GasBudget,
	})
}

func (s *SuiService) mint(ctx context.Context, kind string, call sui.MoveCall) (*MintResult, error) {
	start := time.Now()
	resp, err := s.Client.SignAndExecute(ctx, s.Signer, call)
	fields := log.Fields{"kind": kind, "module": call.Module, "took": time.Since(start).String()}
	if err != nil {
		chainMints.WithLabelValues(kind, "error").Inc()
		log.WithFields(fields).WithError(err).Error("❌ [Sui] mint failed")
		return nil, err
	}
	chainMints.WithLabelValues(kind, "success").Inc()

	result := &MintResult{Digest: resp.Digest, ObjectID: resp.CreatedObjectID()}
	fields["digest"] = result.Digest
	log.WithFields(fields).Info("✅ [Sui] minted")
	return result, nil
}

// GetBalance reads the configured coin balance for any address.
func (s *SuiService) GetBalance(ctx context.Context, address string) (*sui.Balance, error) {
	normalized, err := sui.NormalizeAddress(address)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	balance, err := s.Client.GetBalance(ctx, normalized, s.Config.CoinType)
	if err != nil {
		return nil, chainError("get balance", err)
	}
	return balance, nil
}
