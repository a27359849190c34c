/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"slices"
	"time"

	umsContext "github.com/evap/user-merge-service/internal/system/context"
	"github.com/evap/user-merge-service/internal/system/database/client"
	"github.com/evap/user-merge-service/internal/system/database/lock"
	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
	"github.com/evap/user-merge-service/internal/user_merge/model"
	"github.com/evap/user-merge-service/internal/user_merge/store"
	profileModel "github.com/evap/user-merge-service/internal/user_profile/model"
	profileStore "github.com/evap/user-merge-service/internal/user_profile/store"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// UserMergeServiceInterface merges a user profile (other) into another one (main).
type UserMergeServiceInterface interface {
	MergeUsers(ctx context.Context, main, other *profileModel.UserProfile) (*model.MergeResult, error)
	PreviewMerge(ctx context.Context, main, other *profileModel.UserProfile) (*model.MergeResult, error)
	MergeUsersByUsername(ctx context.Context, mainUsername, otherUsername string, preview bool) (*model.MergeResult, error)
	GetMergeHistory(ctx context.Context, mainUserId int64) ([]model.MergeRecord, error)
	GetMergeHistoryByUsername(ctx context.Context, username string) ([]model.MergeRecord, error)
}

// UserMergeService is the default implementation of UserMergeServiceInterface.
type UserMergeService struct {
	dbClient     client.DBClientInterface
	profileStore profileStore.UserProfileStoreInterface
	recordStore  store.MergeRecordStoreInterface
	txLock       lock.TransactionLock
	// archive is optional. Nil disables archiving.
	archive   store.MergeArchiveInterface
	txTimeout time.Duration
	// waitForLocks makes a merge queue behind a concurrent one instead of failing with a conflict.
	waitForLocks bool
	now          func() time.Time
}

func NewUserMergeService(dbClient client.DBClientInterface, profiles profileStore.UserProfileStoreInterface,
	records store.MergeRecordStoreInterface, txLock lock.TransactionLock, archive store.MergeArchiveInterface,
	txTimeout time.Duration, waitForLocks bool) *UserMergeService {

	return &UserMergeService{
		dbClient:     dbClient,
		profileStore: profiles,
		recordStore:  records,
		txLock:       txLock,
		archive:      archive,
		txTimeout:    txTimeout,
		waitForLocks: waitForLocks,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// MergeUsers merges other into main. When hard errors are found nothing is written and the
// result carries the error tags. Otherwise other is gone once MergeUsers returns.
func (s *UserMergeService) MergeUsers(ctx context.Context, main, other *profileModel.UserProfile) (*model.MergeResult, error) {
	return s.merge(ctx, main, other, false)
}

// PreviewMerge computes the result of merging other into main without writing anything.
func (s *UserMergeService) PreviewMerge(ctx context.Context, main, other *profileModel.UserProfile) (*model.MergeResult, error) {
	return s.merge(ctx, main, other, true)
}

// MergeUsersByUsername resolves both profiles by username, then merges or previews.
func (s *UserMergeService) MergeUsersByUsername(ctx context.Context, mainUsername, otherUsername string,
	preview bool) (*model.MergeResult, error) {

	traceID := umsContext.GetOrGenerateTraceID(ctx)
	ctx = umsContext.WithTraceID(ctx, traceID)

	main, err := s.getByUsername(ctx, mainUsername, traceID)
	if err != nil {
		return nil, err
	}
	other, err := s.getByUsername(ctx, otherUsername, traceID)
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, main, other, preview)
}

// GetMergeHistory returns the merges the user profile survived, oldest first. Archived merges
// whose rows are no longer in the database are included when an archive is configured.
func (s *UserMergeService) GetMergeHistory(ctx context.Context, mainUserId int64) ([]model.MergeRecord, error) {

	records, err := s.recordStore.GetMergeRecords(ctx, s.dbClient.DB(), mainUserId)
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return records, nil
	}
	archived, err := s.archive.GetArchivedMerges(ctx, mainUserId)
	if err != nil {
		log.GetLogger().Warn("Merge archive unavailable, returning database history only",
			log.Int64("main_user_id", mainUserId), log.Error(err))
		return records, nil
	}

	known := make(map[string]struct{}, len(records))
	for _, record := range records {
		known[record.MergeId] = struct{}{}
	}
	for _, record := range archived {
		if _, ok := known[record.MergeId]; !ok {
			records = append(records, record)
		}
	}
	slices.SortStableFunc(records, func(a, b model.MergeRecord) int {
		return a.MergedAt.Compare(b.MergedAt)
	})
	return records, nil
}

// GetMergeHistoryByUsername resolves the profile by username and returns its merge history.
func (s *UserMergeService) GetMergeHistoryByUsername(ctx context.Context, username string) ([]model.MergeRecord, error) {

	traceID := umsContext.GetOrGenerateTraceID(ctx)
	profile, err := s.getByUsername(umsContext.WithTraceID(ctx, traceID), username, traceID)
	if err != nil {
		return nil, err
	}
	return s.GetMergeHistory(ctx, profile.Id)
}

func (s *UserMergeService) getByUsername(ctx context.Context, username, traceID string) (*profileModel.UserProfile, error) {
	profile, err := s.profileStore.GetUserProfileByUsername(ctx, s.dbClient.DB(), username)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.NewClientErrorWithTraceID(errors.WithDescription(errors.USER_PROFILE_NOT_FOUND,
			fmt.Sprintf("No user profile found with username %s.", username)), http.StatusNotFound, traceID)
	}
	return profile, nil
}

func (s *UserMergeService) merge(ctx context.Context, main, other *profileModel.UserProfile,
	preview bool) (*model.MergeResult, error) {

	traceID := umsContext.GetOrGenerateTraceID(ctx)
	ctx = umsContext.WithTraceID(ctx, traceID)
	logger := log.GetLogger().With(log.String("trace_id", traceID))

	if err := validateMergeRequest(main, other, traceID); err != nil {
		logger.Debug("Rejected merge request", log.Error(err))
		return nil, err
	}
	logger = logger.With(log.Int64("main_user_id", main.Id), log.Int64("other_user_id", other.Id))

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		result *model.MergeResult
		record *model.MergeRecord
	)
	txOptions := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	err := s.dbClient.RunInTx(ctx, txOptions, func(ctx context.Context, q client.Querier) error {

		mainSnapshot, otherSnapshot, err := s.lockAndLoad(ctx, q, main.Id, other.Id, traceID)
		if err != nil {
			return err
		}

		errs, warnings := detectConflicts(mainSnapshot, otherSnapshot)
		if len(errs) > 0 {
			result = &model.MergeResult{MergedUser: map[string]interface{}{}, Errors: errs, Warnings: warnings,
				Preview: preview}
			return client.ErrRollback
		}

		plan := buildMergePlan(mainSnapshot, otherSnapshot)
		if preview {
			result = &model.MergeResult{MergedUser: plan.mergedUser(), Errors: errs, Warnings: warnings, Preview: true}
			return client.ErrRollback
		}

		if err := s.applyPlan(ctx, q, plan); err != nil {
			return err
		}
		mergedUser := plan.mergedUser()
		record = &model.MergeRecord{
			MergeId:       uuid.New().String(),
			MainUserId:    mainSnapshot.Id,
			OtherUserId:   otherSnapshot.Id,
			OtherUsername: otherSnapshot.Username,
			Initiator:     umsContext.GetInitiator(ctx),
			Warnings:      warnings,
			MergedUser:    mergedUser,
			MergedAt:      s.now(),
		}
		if err := s.recordStore.AddMergeRecord(ctx, q, record); err != nil {
			return err
		}
		// The absorbed profile goes first so that taking over its email keeps emails unique.
		if err := s.profileStore.DeleteUserProfile(ctx, q, otherSnapshot.Id); err != nil {
			return err
		}
		if err := s.profileStore.UpdateUserProfileFields(ctx, q, plan.fields.apply(mainSnapshot)); err != nil {
			return err
		}
		result = &model.MergeResult{
			MergeId:    record.MergeId,
			MergedUser: mergedUser,
			Errors:     errs,
			Warnings:   warnings,
		}
		return nil
	})
	if err != nil {
		return nil, transactionError(err, traceID)
	}

	s.auditMerge(ctx, logger, main, other, result, traceID)
	if record != nil && s.archive != nil {
		if err := s.archive.Archive(ctx, record); err != nil {
			logger.Warn("Merge committed but could not be archived", log.String("merge_id", record.MergeId),
				log.Error(err))
		}
	}
	return result, nil
}

// lockAndLoad serialises merges touching either profile and returns snapshots read under the locks.
func (s *UserMergeService) lockAndLoad(ctx context.Context, q client.Querier, mainId, otherId int64,
	traceID string) (*profileModel.UserProfile, *profileModel.UserProfile, error) {

	ordered := []int64{mainId, otherId}
	if otherId < mainId {
		ordered = []int64{otherId, mainId}
	}
	for _, id := range ordered {
		if s.waitForLocks {
			if err := s.txLock.Acquire(ctx, q, lock.UserProfileLockKey(id)); err != nil {
				return nil, nil, err
			}
			continue
		}
		acquired, err := s.txLock.TryAcquire(ctx, q, lock.UserProfileLockKey(id))
		if err != nil {
			return nil, nil, err
		}
		if !acquired {
			return nil, nil, errors.NewClientErrorWithTraceID(errors.WithDescription(errors.MERGE_IN_PROGRESS,
				fmt.Sprintf("User profile %d is part of another merge.", id)), http.StatusConflict, traceID)
		}
	}

	locked, err := s.profileStore.LockUserProfiles(ctx, q, ordered...)
	if err != nil {
		return nil, nil, err
	}
	for _, id := range ordered {
		if !slices.Contains(locked, id) {
			return nil, nil, notFoundError(id, traceID)
		}
	}

	mainSnapshot, err := s.profileStore.GetUserProfile(ctx, q, mainId)
	if err != nil {
		return nil, nil, err
	}
	if mainSnapshot == nil {
		return nil, nil, notFoundError(mainId, traceID)
	}
	otherSnapshot, err := s.profileStore.GetUserProfile(ctx, q, otherId)
	if err != nil {
		return nil, nil, err
	}
	if otherSnapshot == nil {
		return nil, nil, notFoundError(otherId, traceID)
	}
	return mainSnapshot, otherSnapshot, nil
}

// applyPlan redirects every relation and ownership row of the absorbed profile to the survivor.
func (s *UserMergeService) applyPlan(ctx context.Context, q client.Querier, plan *mergePlan) error {

	mainId, otherId := plan.main.Id, plan.other.Id
	for _, rp := range plan.relations {
		if err := s.profileStore.RemoveFromRelation(ctx, q, rp.relation, otherId); err != nil {
			return err
		}
		if err := s.profileStore.AddToRelation(ctx, q, rp.relation, mainId, rp.added); err != nil {
			return err
		}
		// The survivor must not reference itself once the two profiles are one.
		if rp.relation.SelfReferential {
			err := s.profileStore.RemoveRelationEntries(ctx, q, rp.relation, mainId, []int64{mainId, otherId})
			if err != nil {
				return err
			}
		}
	}
	for i, op := range plan.ownerships {
		moved, err := s.profileStore.ReassignOwner(ctx, q, op.ownership, otherId, mainId)
		if err != nil {
			return err
		}
		plan.ownerships[i].moved = moved
	}
	return nil
}

func (s *UserMergeService) auditMerge(ctx context.Context, logger *log.Logger, main, other *profileModel.UserProfile,
	result *model.MergeResult, traceID string) {

	data := map[string]interface{}{
		"other_user_id": other.Id,
		"errors":        result.Errors,
		"warnings":      result.Warnings,
	}
	action := log.ActionMergeUserProfiles
	switch {
	case result.Preview:
		action = log.ActionPreviewUserMerge
	case !result.Succeeded():
		action = log.ActionRejectUserMerge
		logger.Info("Merge blocked", log.Strings("errors", result.Errors))
	default:
		data["merge_id"] = result.MergeId
		logger.Info("User profiles merged", log.String("merge_id", result.MergeId),
			log.Strings("warnings", result.Warnings))
	}

	initiator := umsContext.GetInitiator(ctx)
	initiatorType := log.InitiatorTypeUser
	if initiator == log.InitiatorTypeSystem {
		initiatorType = log.InitiatorTypeSystem
	}
	logger.Audit(log.AuditEvent{
		InitiatorID:   initiator,
		InitiatorType: initiatorType,
		TargetID:      fmt.Sprintf("%d", main.Id),
		TargetType:    log.TargetTypeUserProfile,
		ActionID:      action,
		TraceID:       traceID,
		Data:          data,
	})
}

func validateMergeRequest(main, other *profileModel.UserProfile, traceID string) error {
	if main == nil || other == nil {
		return errors.NewClientErrorWithTraceID(errors.WithDescription(errors.INVALID_MERGE_REQUEST,
			"Both the main and the other user profile are required."), http.StatusBadRequest, traceID)
	}
	if main.Id == other.Id {
		return errors.NewClientErrorWithTraceID(errors.WithDescription(errors.INVALID_MERGE_REQUEST,
			fmt.Sprintf("A user profile cannot be merged into itself (id %d).", main.Id)), http.StatusBadRequest, traceID)
	}
	return nil
}

func notFoundError(userProfileId int64, traceID string) error {
	return errors.NewClientErrorWithTraceID(errors.WithDescription(errors.USER_PROFILE_NOT_FOUND,
		fmt.Sprintf("No user profile found with id %d.", userProfileId)), http.StatusNotFound, traceID)
}

// transactionError keeps typed errors from inside the transaction and wraps anything else.
func transactionError(err error, traceID string) error {
	var clientError *errors.ClientError
	if pkgerrors.As(err, &clientError) {
		return clientError
	}
	var serverError *errors.ServerError
	if pkgerrors.As(err, &serverError) {
		return serverError
	}
	log.GetLogger().Debug("User merge transaction failed", log.String("trace_id", traceID), log.Error(err))
	return errors.NewServerErrorWithTraceID(errors.TRANSACTION_FAILED, err, traceID)
}
