// internal/app/features/accounts/register.go
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	organizationstore "github.com/dalemusser/linguashift/internal/app/store/organizations"
	userstore "github.com/dalemusser/linguashift/internal/app/store/users"
	"github.com/dalemusser/linguashift/internal/app/system/htmlsanitize"
	"github.com/dalemusser/linguashift/internal/app/system/jsonapi"
	"github.com/dalemusser/linguashift/internal/app/system/normalize"
	"github.com/dalemusser/linguashift/internal/app/system/timeouts"
	"github.com/dalemusser/linguashift/internal/app/system/txn"
	"github.com/dalemusser/linguashift/internal/domain/errs"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest accepted password, in characters.
const MinPasswordLen = 8

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organizationName"`
	Department       string `json:"department,omitempty"`
	Title            string `json:"title,omitempty"`
}

func (in *RegisterInput) clean() error {
	in.Name = normalize.Name(htmlsanitize.PlainText(in.Name))
	in.Email = normalize.Email(in.Email)
	in.OrganizationName = normalize.Name(htmlsanitize.PlainText(in.OrganizationName))
	in.Department = strings.TrimSpace(htmlsanitize.PlainText(in.Department))
	in.Title = strings.TrimSpace(htmlsanitize.PlainText(in.Title))

	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", errs.ErrValidation)
	case in.Email == "":
		return fmt.Errorf("%w: email is required", errs.ErrValidation)
	case in.OrganizationName == "":
		return fmt.Errorf("%w: organizationName is required", errs.ErrValidation)
	case utf8.RuneCountInString(in.Password) < MinPasswordLen:
		return fmt.Errorf("%w: password must be at least %d characters", errs.ErrValidation, MinPasswordLen)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: email is not valid", errs.ErrValidation)
	}
	return nil
}

// Register creates an organization and its owning admin user.
//
// The two documents reference each other, so the write happens in three
// steps: the organization with a provisional owner, the user pointing at
// the organization, then the organization's owner and members. The steps
// run in one transaction when the deployment supports it; otherwise they
// run in order and earlier steps are undone when a later one fails.
func Register(ctx context.Context, db *mongo.Database, log *zap.Logger, in RegisterInput, bcryptCost int) (models.User, models.Organization, error) {
	if err := in.clean(); err != nil {
		return models.User{}, models.Organization{}, err
	}
	users := userstore.New(db)
	orgs := organizationstore.New(db)

	if _, err := users.GetByEmail(ctx, in.Email); err == nil {
		return models.User{}, models.Organization{}, userstore.ErrDuplicateEmail
	} else if !errors.Is(err, errs.ErrNotFound) {
		return models.User{}, models.Organization{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return models.User{}, models.Organization{}, fmt.Errorf("hash password: %w", err)
	}

	var user models.User
	var org models.Organization
	err = txn.Run(ctx, db, log, func(ctx context.Context) error {
		var err error
		org, err = orgs.Create(ctx, in.OrganizationName, primitive.NewObjectID())
		if err != nil {
			return err
		}
		user, err = users.Create(ctx, models.User{
			Name:           in.Name,
			Email:          in.Email,
			PasswordHash:   string(hash),
			Role:           models.RoleAdmin,
			OrganizationID: org.ID,
			Department:     in.Department,
			Title:          in.Title,
		})
		if err != nil {
			_ = orgs.Delete(ctx, org.ID)
			return err
		}
		if err := orgs.SetOwner(ctx, org.ID, user.ID); err != nil {
			_ = users.Delete(ctx, user.ID)
			_ = orgs.Delete(ctx, org.ID)
			return err
		}
		org.OwnerID = user.ID
		org.Members = []primitive.ObjectID{user.ID}
		return nil
	})
	if err != nil {
		return models.User{}, models.Organization{}, err
	}
	return user, org, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/register                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := jsonapi.DecodeJSON(w, r, &in); err != nil {
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, org, err := Register(ctx, h.DB, h.Log, in, h.BcryptCost)
	if err != nil {
		if !errors.Is(err, errs.ErrValidation) {
			h.Log.Error("registration failed", zap.Error(err))
		}
		jsonapi.WriteError(w, h.Log, err)
		return
	}

	h.Log.Info("organization registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("org_id", org.ID.Hex()))
	h.AuditLog.Registered(ctx, r, user.ID, org.ID)

	h.signIn(w, r, user, http.StatusCreated)
}
