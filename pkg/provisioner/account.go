// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provisioner

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/NVIDIA/grafana-provisioner/pkg/errors"
	"github.com/NVIDIA/grafana-provisioner/pkg/grafana"
)

// EnsureToken resolves the service account, creating it when missing, and
// returns a freshly minted token for it. Any failure carries code
// PROVISIONING.
func (p *Provisioner) EnsureToken(ctx context.Context) (string, error) {
	return p.ensureToken(ctx, p.newReport())
}

func (p *Provisioner) ensureToken(ctx context.Context, r *Report) (string, error) {
	id, err := p.resolveAccount(ctx, r)
	if err != nil {
		r.record(StageToken, OutcomeSkipped, "no service account")
		return "", err
	}
	r.ServiceAccountID = id

	return p.mintToken(ctx, r, id)
}

// resolveAccount creates the service account, or on 409 looks it up by name.
// The lookup always happens before any token call.
func (p *Provisioner) resolveAccount(ctx context.Context, r *Report) (int64, error) {
	sa, resp, err := p.client.CreateServiceAccount(ctx, p.admin(), grafana.CreateServiceAccountRequest{
		Name: p.cfg.ServiceAccountName,
		Role: p.cfg.ServiceAccountRole,
	})
	if err != nil {
		return 0, p.fail(r, StageServiceAccount,
			fmt.Sprintf("Failed to create service account: %v", err),
			apperrors.Wrap(apperrors.ErrCodeProvisioning, "failed to create service account", err))
	}

	switch {
	case resp.IsSuccess():
		if sa.ID <= 0 {
			return 0, p.fail(r, StageServiceAccount,
				fmt.Sprintf("Failed to create service account: %s", resp.BodyString()),
				provisioningError("service account response carried no id", resp))
		}
		p.printf("Service account created successfully.")
		r.record(StageServiceAccount, OutcomeCreated, fmt.Sprintf("id %d", sa.ID))
		slog.Info("service account created", "name", p.cfg.ServiceAccountName, "id", sa.ID)
		return sa.ID, nil

	case resp.IsConflict():
		p.printf("Service account already exists.")
		return p.lookupAccount(ctx, r)

	default:
		return 0, p.fail(r, StageServiceAccount,
			fmt.Sprintf("Failed to create service account: %s", resp.BodyString()),
			provisioningError("failed to create service account", resp))
	}
}

func (p *Provisioner) lookupAccount(ctx context.Context, r *Report) (int64, error) {
	name := p.cfg.ServiceAccountName

	accounts, resp, err := p.client.SearchServiceAccounts(ctx, p.admin(), name)
	if err != nil {
		detail := err.Error()
		if resp != nil {
			detail = resp.BodyString()
		}
		return 0, p.fail(r, StageServiceAccount,
			fmt.Sprintf("Failed to retrieve existing service account: %s", detail),
			apperrors.Wrap(apperrors.ErrCodeProvisioning, "failed to look up existing service account", err))
	}
	if resp.StatusCode != 200 || len(accounts) == 0 {
		return 0, p.fail(r, StageServiceAccount,
			fmt.Sprintf("Failed to retrieve existing service account: %s", resp.BodyString()),
			provisioningError(fmt.Sprintf("no service account named %q found", name), resp))
	}

	sa := pickAccount(accounts, name)
	r.record(StageServiceAccount, OutcomeExists, fmt.Sprintf("id %d", sa.ID))
	slog.Info("reusing existing service account", "name", name, "id", sa.ID, "matches", len(accounts))
	return sa.ID, nil
}

// pickAccount prefers an exact name match and falls back to the first result.
func pickAccount(accounts []grafana.ServiceAccount, name string) grafana.ServiceAccount {
	for _, a := range accounts {
		if a.Name == name {
			return a
		}
	}
	return accounts[0]
}

// mintToken creates the labeled token. When the label is taken, the old
// token is deleted and a new one created, since Grafana never returns an
// existing token's secret.
func (p *Provisioner) mintToken(ctx context.Context, r *Report, accountID int64) (string, error) {
	tok, resp, err := p.client.CreateToken(ctx, p.admin(), accountID, grafana.CreateTokenRequest{Name: p.cfg.TokenName})
	if err != nil {
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to create service account token: %v", err),
			apperrors.Wrap(apperrors.ErrCodeProvisioning, "failed to create service account token", err))
	}

	switch {
	case resp.IsSuccess():
		if tok.Key == "" {
			return "", p.fail(r, StageToken,
				fmt.Sprintf("Failed to create service account token: %s", resp.BodyString()),
				provisioningError("token response carried no key", resp))
		}
		p.printf("Service account token created successfully.")
		r.record(StageToken, OutcomeCreated, p.cfg.TokenName)
		slog.Info("service account token created", "account_id", accountID, "token", p.cfg.TokenName)
		return tok.Key, nil

	case resp.IsConflict():
		p.printf("Service account token already exists.")
		return p.recreateToken(ctx, r, accountID)

	default:
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to create service account token: %s", resp.BodyString()),
			provisioningError("failed to create service account token", resp))
	}
}

func (p *Provisioner) recreateToken(ctx context.Context, r *Report, accountID int64) (string, error) {
	name := p.cfg.TokenName

	tokens, resp, err := p.client.ListTokens(ctx, p.admin(), accountID)
	if err != nil {
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to retrieve existing service account tokens: %v", err),
			apperrors.Wrap(apperrors.ErrCodeProvisioning, "failed to list service account tokens", err))
	}
	if resp.StatusCode != 200 {
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to retrieve existing service account tokens: %s", resp.BodyString()),
			provisioningError("failed to list service account tokens", resp))
	}

	existing, ok := findToken(tokens, name)
	if !ok {
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to retrieve existing service account tokens: no token named %q", name),
			apperrors.NewWithContext(apperrors.ErrCodeProvisioning,
				fmt.Sprintf("token %q reported as existing but not listed", name),
				map[string]any{"account_id": accountID, "tokens": len(tokens)}))
	}

	resp, err = p.client.DeleteToken(ctx, p.admin(), accountID, existing.ID)
	if err != nil {
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to delete existing service account token: %v", err),
			apperrors.Wrap(apperrors.ErrCodeProvisioning, "failed to delete existing token", err))
	}
	if !resp.IsSuccess() {
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to delete existing service account token: %s", resp.BodyString()),
			provisioningError("failed to delete existing token", resp))
	}
	slog.Info("deleted existing service account token", "account_id", accountID, "token_id", existing.ID)

	tok, resp, err := p.client.CreateToken(ctx, p.admin(), accountID, grafana.CreateTokenRequest{Name: name})
	if err != nil {
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to create service account token: %v", err),
			apperrors.Wrap(apperrors.ErrCodeProvisioning, "failed to recreate service account token", err))
	}
	if !resp.IsSuccess() || tok.Key == "" {
		return "", p.fail(r, StageToken,
			fmt.Sprintf("Failed to create service account token: %s", resp.BodyString()),
			provisioningError("failed to recreate service account token", resp))
	}

	p.printf("Service account token recreated successfully.")
	r.record(StageToken, OutcomeRecreated, name)
	return tok.Key, nil
}

func findToken(tokens []grafana.Token, name string) (grafana.Token, bool) {
	for _, t := range tokens {
		if t.Name == name {
			return t, true
		}
	}
	return grafana.Token{}, false
}

func provisioningError(msg string, resp *grafana.Response) error {
	return apperrors.NewWithContext(apperrors.ErrCodeProvisioning,
		fmt.Sprintf("%s: status %d: %s", msg, resp.StatusCode, resp.BodyString()),
		map[string]any{
			"status":     resp.StatusCode,
			"request_id": resp.RequestID,
		})
}

// fail prints the status line, records the failed stage and returns err.
func (p *Provisioner) fail(r *Report, stage Stage, line string, err error) error {
	p.printf("%s", line)
	r.record(stage, OutcomeFailed, err.Error())
	slog.Error("stage failed", "stage", stage, "error", err)
	return err
}
