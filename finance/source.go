/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SourceType names the origin of a mirrored business event.
type SourceType string

// SourceType values. The set is closed.
const (
	SourcePayment            SourceType = "payment"
	SourceProjectInstallment SourceType = "projectInstallment"
	SourceSalary             SourceType = "salary"
	SourceIncentive          SourceType = "incentive"
	SourceReward             SourceType = "reward"
	SourceExpenseEntry       SourceType = "expenseEntry"
	SourcePaymentReceipt     SourceType = "paymentReceipt"
	SourceProjectConversion  SourceType = "projectConversion"
	SourceManual             SourceType = "manual"
)

// Metadata keys every tagged entry carries.
const (
	MetaSourceType = "sourceType"
	MetaSourceID   = "sourceId"
)

// ParseSourceType validates a persisted source type string.
func ParseSourceType(raw string) (SourceType, error) {
	switch st := SourceType(raw); st {
	case SourcePayment, SourceProjectInstallment, SourceSalary, SourceIncentive,
		SourceReward, SourceExpenseEntry, SourcePaymentReceipt,
		SourceProjectConversion, SourceManual:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownSourceType, raw)
	}
}

// SourceKey identifies the originating business event of a ledger entry.
type SourceKey struct {
	Type SourceType
	ID   string
}

func (k SourceKey) String() string {
	return string(k.Type) + "/" + k.ID
}

// Source is one origin of a ledger entry. Each implementation carries the
// typed references of its origin.
type Source interface {
	Type() SourceType
	ID() string
	Metadata() map[string]any
}

// KeyOf returns the source key of s.
func KeyOf(s Source) SourceKey {
	return SourceKey{Type: s.Type(), ID: s.ID()}
}

func baseMetadata(s Source) map[string]any {
	return map[string]any{
		MetaSourceType: string(s.Type()),
		MetaSourceID:   s.ID(),
	}
}

// PaymentSource mirrors a completed client payment.
type PaymentSource struct {
	PaymentID uuid.UUID
}

func (s PaymentSource) Type() SourceType { return SourcePayment }
func (s PaymentSource) ID() string       { return s.PaymentID.String() }

func (s PaymentSource) Metadata() map[string]any {
	return baseMetadata(s)
}

// InstallmentSource mirrors one paid installment of a project plan.
type InstallmentSource struct {
	ProjectID uuid.UUID
	Index     int
}

func (s InstallmentSource) Type() SourceType { return SourceProjectInstallment }

func (s InstallmentSource) ID() string {
	return s.ProjectID.String() + ":" + strconv.Itoa(s.Index)
}

func (s InstallmentSource) Metadata() map[string]any {
	md := baseMetadata(s)
	md["projectId"] = s.ProjectID.String()
	md["installmentIndex"] = s.Index

	return md
}

// SalarySource mirrors a salary payout.
type SalarySource struct {
	SalaryID   uuid.UUID
	EmployeeID uuid.UUID
}

func (s SalarySource) Type() SourceType { return SourceSalary }
func (s SalarySource) ID() string       { return s.SalaryID.String() }

func (s SalarySource) Metadata() map[string]any {
	md := baseMetadata(s)
	md["employeeId"] = s.EmployeeID.String()

	return md
}

// IncentiveSource mirrors an incentive payout.
type IncentiveSource struct {
	IncentiveID uuid.UUID
	EmployeeID  uuid.UUID
}

func (s IncentiveSource) Type() SourceType { return SourceIncentive }
func (s IncentiveSource) ID() string       { return s.IncentiveID.String() }

func (s IncentiveSource) Metadata() map[string]any {
	md := baseMetadata(s)
	md["employeeId"] = s.EmployeeID.String()

	return md
}

// RewardSource mirrors a reward payout.
type RewardSource struct {
	RewardID   uuid.UUID
	EmployeeID uuid.UUID
}

func (s RewardSource) Type() SourceType { return SourceReward }
func (s RewardSource) ID() string       { return s.RewardID.String() }

func (s RewardSource) Metadata() map[string]any {
	md := baseMetadata(s)
	md["employeeId"] = s.EmployeeID.String()

	return md
}

// ExpenseEntrySource mirrors the settlement of a recurring expense entry.
type ExpenseEntrySource struct {
	EntryID      uuid.UUID
	DefinitionID uuid.UUID
	AutoPaid     bool
}

func (s ExpenseEntrySource) Type() SourceType { return SourceExpenseEntry }
func (s ExpenseEntrySource) ID() string       { return s.EntryID.String() }

func (s ExpenseEntrySource) Metadata() map[string]any {
	md := baseMetadata(s)
	md["definitionId"] = s.DefinitionID.String()
	md["autoPaid"] = s.AutoPaid

	return md
}

// PaymentReceiptSource mirrors an approved payment receipt.
type PaymentReceiptSource struct {
	ReceiptID uuid.UUID
	ProjectID uuid.UUID
}

func (s PaymentReceiptSource) Type() SourceType { return SourcePaymentReceipt }
func (s PaymentReceiptSource) ID() string       { return s.ReceiptID.String() }

func (s PaymentReceiptSource) Metadata() map[string]any {
	md := baseMetadata(s)
	md["projectId"] = s.ProjectID.String()

	return md
}

// ProjectConversionSource mirrors the advance captured when a lead became a project.
type ProjectConversionSource struct {
	ProjectID uuid.UUID
}

func (s ProjectConversionSource) Type() SourceType { return SourceProjectConversion }
func (s ProjectConversionSource) ID() string       { return s.ProjectID.String() }

func (s ProjectConversionSource) Metadata() map[string]any {
	return baseMetadata(s)
}

// ManualSource tags an admin-entered record.
type ManualSource struct {
	Reference uuid.UUID
}

func (s ManualSource) Type() SourceType { return SourceManual }
func (s ManualSource) ID() string       { return s.Reference.String() }

func (s ManualSource) Metadata() map[string]any {
	return baseMetadata(s)
}

// SourceFromMetadata rebuilds the typed source from persisted metadata.
// It returns nil for untagged or unrecognised metadata.
func SourceFromMetadata(md map[string]any) Source {
	rawType, _ := md[MetaSourceType].(string)
	rawID, _ := md[MetaSourceID].(string)

	if rawType == "" || rawID == "" {
		return nil
	}

	st, err := ParseSourceType(rawType)
	if err != nil {
		return nil
	}

	return sourceFor(st, rawID, md)
}

// SourceFromKey rebuilds the typed source from a stored key and metadata.
// Metadata only supplies the auxiliary references.
func SourceFromKey(key SourceKey, md map[string]any) Source {
	if key.ID == "" {
		return nil
	}

	if _, err := ParseSourceType(string(key.Type)); err != nil {
		return nil
	}

	return sourceFor(key.Type, key.ID, md)
}

func sourceFor(st SourceType, rawID string, md map[string]any) Source {
	switch st {
	case SourceProjectInstallment:
		projectPart, indexPart, ok := strings.Cut(rawID, ":")
		if !ok {
			return nil
		}

		projectID, err := uuid.Parse(projectPart)
		if err != nil {
			return nil
		}

		index, err := strconv.Atoi(indexPart)
		if err != nil {
			return nil
		}

		return InstallmentSource{ProjectID: projectID, Index: index}
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil
	}

	switch st {
	case SourcePayment:
		return PaymentSource{PaymentID: id}
	case SourceSalary:
		return SalarySource{SalaryID: id, EmployeeID: metaUUID(md, "employeeId")}
	case SourceIncentive:
		return IncentiveSource{IncentiveID: id, EmployeeID: metaUUID(md, "employeeId")}
	case SourceReward:
		return RewardSource{RewardID: id, EmployeeID: metaUUID(md, "employeeId")}
	case SourceExpenseEntry:
		autoPaid, _ := md["autoPaid"].(bool)

		return ExpenseEntrySource{EntryID: id, DefinitionID: metaUUID(md, "definitionId"), AutoPaid: autoPaid}
	case SourcePaymentReceipt:
		return PaymentReceiptSource{ReceiptID: id, ProjectID: metaUUID(md, "projectId")}
	case SourceProjectConversion:
		return ProjectConversionSource{ProjectID: id}
	case SourceManual:
		return ManualSource{Reference: id}
	default:
		return nil
	}
}

func metaUUID(md map[string]any, key string) uuid.UUID {
	raw, _ := md[key].(string)

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}
	}

	return id
}

// mergeMetadata overlays the source tags on caller-supplied metadata so the
// tags can never be overridden.
func mergeMetadata(extra map[string]any, src Source) map[string]any {
	md := make(map[string]any, len(extra)+4)
	for k, v := range extra {
		md[k] = v
	}

	if src != nil {
		for k, v := range src.Metadata() {
			md[k] = v
		}
	}

	return md
}
