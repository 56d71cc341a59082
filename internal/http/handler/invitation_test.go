package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"edulift.app/membership/internal/http/handler"
	"edulift.app/membership/internal/http/middleware"
	"edulift.app/membership/internal/model"
	"edulift.app/membership/internal/service"
)

var (
	alice = model.Identity{UserID: 100, Email: "alice@x.com"}
	bob   = model.Identity{UserID: 400, Email: "bob@x.com"}
)

func tokenFor(auth *middleware.Authenticator, identity model.Identity) string {
	token, err := auth.Sign(identity, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	Expect(err).NotTo(HaveOccurred())
	return token
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
	return resp
}

func pendingInvitation(id int64, kind model.InvitationKind, targetID int64, email *string) *model.Invitation {
	return &model.Invitation{
		ID:        id,
		Kind:      kind,
		TargetID:  targetID,
		Email:     email,
		Role:      "MEMBER",
		Code:      "ABC1234",
		Status:    model.InvitationStatusPending,
		ExpiresAt: time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC),
		InvitedBy: alice.UserID,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

var _ = Describe("InvitationHandler", func() {
	var (
		router *gin.Engine
		svc    *mockMembershipCoordinator
		auth   *middleware.Authenticator
		token  string
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockMembershipCoordinator{}
		auth = middleware.NewAuthenticator("test-secret", "")
		token = tokenFor(auth, alice)

		h := handler.NewInvitationHandler(svc)

		router.GET("/invitations/family/validate", middleware.OptionalAuth(auth), h.ValidateFamily)
		router.GET("/invitations/group/validate", middleware.OptionalAuth(auth), h.ValidateGroup)

		authed := router.Group("", middleware.RequireAuth(auth))
		{
			authed.POST("/families/:id/invitations", h.CreateFamily)
			authed.GET("/families/:id/invitations", h.ListFamily)
			authed.POST("/groups/:id/invitations", h.CreateGroup)
			authed.GET("/groups/:id/invitations", h.ListGroup)
			authed.POST("/invitations/family/accept", h.AcceptFamily)
			authed.POST("/invitations/group/accept", h.AcceptGroup)
			authed.DELETE("/invitations/family/:id", h.CancelFamily)
			authed.DELETE("/invitations/group/:id", h.CancelGroup)
			authed.GET("/invitations/mine", h.Mine)
		}
	})

	Describe("CreateFamily", func() {
		It("returns 201 with the invitation", func() {
			var gotCaller model.Identity
			var gotInput service.CreateInvitationInput
			svc.createFamilyFn = func(_ context.Context, caller model.Identity, familyID int64, in service.CreateInvitationInput) (*model.Invitation, error) {
				gotCaller = caller
				gotInput = in
				return pendingInvitation(7, model.InvitationKindFamily, familyID, in.Email), nil
			}

			w := doJSON(router, http.MethodPost, "/families/1/invitations", token, map[string]any{
				"email":            "bob@x.com",
				"role":             "ADMIN",
				"personal_message": "hi",
			})

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(gotCaller).To(Equal(alice))
			Expect(*gotInput.Email).To(Equal("bob@x.com"))
			Expect(gotInput.Role).To(Equal("ADMIN"))
			Expect(*gotInput.PersonalMessage).To(Equal("hi"))

			resp := decode(w)
			Expect(resp["id"]).To(Equal("7"))
			Expect(resp["target_id"]).To(Equal("1"))
			Expect(resp["code"]).To(Equal("ABC1234"))
			Expect(resp["status"]).To(Equal("PENDING"))
		})

		It("creates an open invitation from an empty body", func() {
			svc.createFamilyFn = func(_ context.Context, _ model.Identity, familyID int64, in service.CreateInvitationInput) (*model.Invitation, error) {
				Expect(in.Email).To(BeNil())
				return pendingInvitation(8, model.InvitationKindFamily, familyID, nil), nil
			}

			w := doJSON(router, http.MethodPost, "/families/1/invitations", token, nil)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(decode(w)).NotTo(HaveKey("email"))
		})

		It("returns 400 on a malformed path id", func() {
			w := doJSON(router, http.MethodPost, "/families/abc/invitations", token, nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["code"]).To(Equal("INVALID_INPUT"))
		})

		It("returns 400 on a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/families/1/invitations", bytes.NewBufferString("{"))
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 401 without a token", func() {
			w := doJSON(router, http.MethodPost, "/families/1/invitations", "", nil)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns 401 with a token signed by someone else", func() {
			forged := tokenFor(middleware.NewAuthenticator("other-secret", ""), alice)
			w := doJSON(router, http.MethodPost, "/families/1/invitations", forged, nil)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		DescribeTable("maps business errors to statuses",
			func(err error, status int, code string) {
				svc.createFamilyFn = func(context.Context, model.Identity, int64, service.CreateInvitationInput) (*model.Invitation, error) {
					return nil, err
				}

				w := doJSON(router, http.MethodPost, "/families/1/invitations", token, map[string]any{"email": "bob@x.com"})

				Expect(w.Code).To(Equal(status))
				Expect(decode(w)["code"]).To(Equal(code))
			},
			Entry("UNAUTHORIZED", service.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"),
			Entry("ALREADY_MEMBER", service.ErrAlreadyMember, http.StatusConflict, "ALREADY_MEMBER"),
			Entry("DUPLICATE_INVITATION", service.ErrDuplicateInvitation, http.StatusConflict, "DUPLICATE_INVITATION"),
			Entry("FAMILY_FULL", service.ErrFamilyFull, http.StatusUnprocessableEntity, "FAMILY_FULL"),
			Entry("INVALID_INPUT", service.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"),
			Entry("NOT_FOUND", service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"),
		)

		It("hides infrastructure errors behind a 500", func() {
			svc.createFamilyFn = func(context.Context, model.Identity, int64, service.CreateInvitationInput) (*model.Invitation, error) {
				return nil, errors.New("pq: connection refused")
			}

			w := doJSON(router, http.MethodPost, "/families/1/invitations", token, nil)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).NotTo(ContainSubstring("connection refused"))
		})
	})

	Describe("CreateGroup", func() {
		It("dispatches to the group path", func() {
			svc.createGroupFn = func(_ context.Context, _ model.Identity, groupID int64, in service.CreateInvitationInput) (*model.Invitation, error) {
				return pendingInvitation(9, model.InvitationKindGroup, groupID, in.Email), nil
			}

			w := doJSON(router, http.MethodPost, "/groups/10/invitations", token, map[string]any{"email": "dave@x.com"})

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(decode(w)["kind"]).To(Equal("GROUP"))
		})
	})

	Describe("List", func() {
		It("lists the pending invitations of a family", func() {
			svc.listTargetFn = func(_ context.Context, caller model.Identity, kind model.InvitationKind, targetID int64) ([]model.Invitation, error) {
				Expect(caller).To(Equal(alice))
				Expect(kind).To(Equal(model.InvitationKindFamily))
				return []model.Invitation{*pendingInvitation(1, kind, targetID, nil), *pendingInvitation(2, kind, targetID, nil)}, nil
			}

			w := doJSON(router, http.MethodGet, "/families/1/invitations", token, nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["invitations"]).To(HaveLen(2))
		})

		It("lists the pending invitations of a group", func() {
			svc.listTargetFn = func(_ context.Context, _ model.Identity, kind model.InvitationKind, _ int64) ([]model.Invitation, error) {
				Expect(kind).To(Equal(model.InvitationKindGroup))
				return nil, nil
			}

			w := doJSON(router, http.MethodGet, "/groups/10/invitations", token, nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["invitations"]).To(BeEmpty())
		})

		It("returns 403 for non-admins", func() {
			svc.listTargetFn = func(context.Context, model.Identity, model.InvitationKind, int64) ([]model.Invitation, error) {
				return nil, service.ErrUnauthorized
			}

			w := doJSON(router, http.MethodGet, "/families/1/invitations", token, nil)
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("Validate", func() {
		It("works anonymously", func() {
			svc.validateFamFn = func(_ context.Context, code string, caller *model.Identity) (*service.FamilyInvitationValidation, error) {
				Expect(code).To(Equal("abc1234"))
				Expect(caller).To(BeNil())
				return &service.FamilyInvitationValidation{Valid: true, FamilyName: "Smiths"}, nil
			}

			w := doJSON(router, http.MethodGet, "/invitations/family/validate?code=abc1234", "", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["valid"]).To(BeTrue())
			Expect(resp["family_name"]).To(Equal("Smiths"))
		})

		It("passes the caller when a token is present", func() {
			svc.validateFamFn = func(_ context.Context, _ string, caller *model.Identity) (*service.FamilyInvitationValidation, error) {
				Expect(caller).NotTo(BeNil())
				Expect(*caller).To(Equal(alice))
				return &service.FamilyInvitationValidation{Valid: true}, nil
			}

			w := doJSON(router, http.MethodGet, "/invitations/family/validate?code=ABC1234", token, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("treats an invalid token as anonymous", func() {
			svc.validateGroupFn = func(_ context.Context, _ string, caller *model.Identity) (*service.GroupInvitationValidation, error) {
				Expect(caller).To(BeNil())
				return &service.GroupInvitationValidation{Valid: true, GroupName: "Carpool"}, nil
			}

			w := doJSON(router, http.MethodGet, "/invitations/group/validate?code=ABC1234", "garbage", nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["group_name"]).To(Equal("Carpool"))
		})

		It("returns 400 without a code", func() {
			w := doJSON(router, http.MethodGet, "/invitations/family/validate", "", nil)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 410 with the deadline for expired invitations", func() {
			svc.validateFamFn = func(context.Context, string, *model.Identity) (*service.FamilyInvitationValidation, error) {
				return nil, service.NewErrorWithMetadata(service.CodeExpired, "invitation has expired", map[string]string{
					"expired_at": "2026-03-08T12:00:00Z",
				})
			}

			w := doJSON(router, http.MethodGet, "/invitations/family/validate?code=ABC1234", "", nil)

			Expect(w.Code).To(Equal(http.StatusGone))
			resp := decode(w)
			Expect(resp["code"]).To(Equal("EXPIRED"))
			Expect(resp["details"]).To(HaveKeyWithValue("expired_at", "2026-03-08T12:00:00Z"))
		})

		It("returns 404 for unknown codes", func() {
			svc.validateGroupFn = func(context.Context, string, *model.Identity) (*service.GroupInvitationValidation, error) {
				return nil, service.ErrInvalidCode
			}

			w := doJSON(router, http.MethodGet, "/invitations/group/validate?code=NOPE123", "", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("AcceptFamily", func() {
		It("returns the new membership", func() {
			left := int64(2)
			svc.acceptFamilyFn = func(_ context.Context, code string, caller model.Identity, opts service.AcceptFamilyOptions) (*service.FamilyAcceptance, error) {
				Expect(code).To(Equal("ABC1234"))
				Expect(caller).To(Equal(bob))
				Expect(opts.LeaveCurrentFamily).To(BeTrue())
				inv := pendingInvitation(7, model.InvitationKindFamily, 1, nil)
				inv.Status = model.InvitationStatusAccepted
				return &service.FamilyAcceptance{
					Invitation:   inv,
					Family:       &model.Family{ID: 1, Name: "Smiths"},
					Membership:   &model.FamilyMember{UserID: bob.UserID, FamilyID: 1, Role: model.FamilyRoleMember},
					LeftFamilyID: &left,
				}, nil
			}

			w := doJSON(router, http.MethodPost, "/invitations/family/accept", tokenFor(auth, bob), map[string]any{
				"code":                 "ABC1234",
				"leave_current_family": true,
			})

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["family_id"]).To(Equal("1"))
			Expect(resp["family_name"]).To(Equal("Smiths"))
			Expect(resp["role"]).To(Equal("MEMBER"))
			Expect(resp["left_family_id"]).To(Equal("2"))
		})

		It("returns 400 without a code", func() {
			w := doJSON(router, http.MethodPost, "/invitations/family/accept", token, map[string]any{})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 409 with the current family when confirmation is needed", func() {
			svc.acceptFamilyFn = func(context.Context, string, model.Identity, service.AcceptFamilyOptions) (*service.FamilyAcceptance, error) {
				return nil, service.NewErrorWithMetadata(service.CodeFamilyConflict, "already a member of another family", map[string]string{
					"family_id":   "2",
					"family_name": "Does",
				})
			}

			w := doJSON(router, http.MethodPost, "/invitations/family/accept", token, map[string]any{"code": "ABC1234"})

			Expect(w.Code).To(Equal(http.StatusConflict))
			resp := decode(w)
			Expect(resp["code"]).To(Equal("FAMILY_CONFLICT"))
			Expect(resp["details"]).To(HaveKeyWithValue("family_name", "Does"))
		})

		It("returns 422 for the last admin", func() {
			svc.acceptFamilyFn = func(context.Context, string, model.Identity, service.AcceptFamilyOptions) (*service.FamilyAcceptance, error) {
				return nil, service.ErrLastAdmin
			}

			w := doJSON(router, http.MethodPost, "/invitations/family/accept", token, map[string]any{"code": "ABC1234"})
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})

		It("returns 403 for a mismatched e-mail", func() {
			svc.acceptFamilyFn = func(context.Context, string, model.Identity, service.AcceptFamilyOptions) (*service.FamilyAcceptance, error) {
				return nil, service.ErrEmailMismatch
			}

			w := doJSON(router, http.MethodPost, "/invitations/family/accept", token, map[string]any{"code": "ABC1234"})
			Expect(w.Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("AcceptGroup", func() {
		It("returns the binding and cascade counts", func() {
			svc.acceptGroupFn = func(_ context.Context, _ string, _ model.Identity) (*service.GroupAcceptance, error) {
				return &service.GroupAcceptance{
					Invitation:      pendingInvitation(9, model.InvitationKindGroup, 10, nil),
					Group:           &model.Group{ID: 10, Name: "Carpool"},
					Binding:         &model.GroupFamilyMember{GroupID: 10, FamilyID: 2, Role: model.GroupRoleMember},
					MembersAffected: 2,
					ChildrenAdded:   3,
				}, nil
			}

			w := doJSON(router, http.MethodPost, "/invitations/group/accept", token, map[string]any{"code": "ABC1234"})

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decode(w)
			Expect(resp["group_id"]).To(Equal("10"))
			Expect(resp["family_id"]).To(Equal("2"))
			Expect(resp["members_affected"]).To(BeNumerically("==", 2))
			Expect(resp["children_added"]).To(BeNumerically("==", 3))
		})

		It("returns 403 with the admin contact when the caller is not a family admin", func() {
			svc.acceptGroupFn = func(context.Context, string, model.Identity) (*service.GroupAcceptance, error) {
				return nil, service.NewErrorWithMetadata(service.CodeRequiresAdminAction, "ask Dave", map[string]string{
					"admin_name":  "Dave",
					"admin_email": "dave@x.com",
				})
			}

			w := doJSON(router, http.MethodPost, "/invitations/group/accept", token, map[string]any{"code": "ABC1234"})

			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(decode(w)["details"]).To(HaveKeyWithValue("admin_email", "dave@x.com"))
		})

		It("returns 422 when the caller has no family", func() {
			svc.acceptGroupFn = func(context.Context, string, model.Identity) (*service.GroupAcceptance, error) {
				return nil, service.ErrFamilyOnboardingRequired
			}

			w := doJSON(router, http.MethodPost, "/invitations/group/accept", token, map[string]any{"code": "ABC1234"})
			Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		})
	})

	Describe("Cancel", func() {
		It("returns 204 for a family invitation", func() {
			var gotID int64
			svc.cancelFamilyFn = func(_ context.Context, _ model.Identity, invitationID int64) error {
				gotID = invitationID
				return nil
			}

			w := doJSON(router, http.MethodDelete, "/invitations/family/7", token, nil)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(gotID).To(Equal(int64(7)))
		})

		It("returns 404 for a missing group invitation", func() {
			svc.cancelGroupFn = func(context.Context, model.Identity, int64) error {
				return service.ErrNotFound
			}

			w := doJSON(router, http.MethodDelete, "/invitations/group/7", token, nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Mine", func() {
		It("lists invitations addressed to the caller's e-mail", func() {
			svc.listEmailFn = func(_ context.Context, email string) ([]model.Invitation, error) {
				Expect(email).To(Equal("bob@x.com"))
				return []model.Invitation{*pendingInvitation(1, model.InvitationKindFamily, 1, &email)}, nil
			}

			w := doJSON(router, http.MethodGet, "/invitations/mine", tokenFor(auth, bob), nil)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(decode(w)["invitations"]).To(HaveLen(1))
		})
	})
})
