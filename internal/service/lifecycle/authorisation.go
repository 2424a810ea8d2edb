package lifecycle

import (
	"context"

	authdom "github.com/dropDatabas3/consentd/internal/domain/authorisation"
	"github.com/dropDatabas3/consentd/internal/domain/psu"
	"github.com/dropDatabas3/consentd/internal/observability/logger"
	"github.com/dropDatabas3/consentd/internal/security/opaque"
	authsvc "github.com/dropDatabas3/consentd/internal/service/authorisation"
)

// AuthorisationResult es una sesión SCA junto con su token opaco.
type AuthorisationResult struct {
	Token         string
	Authorisation *authdom.Authorisation
}

// StartAuthorisationRequest abre una sesión SCA contra un parent referido
// por token opaco.
type StartAuthorisationRequest struct {
	InstanceID  string
	ParentToken string
	ParentKind  authdom.ParentKind
	Kind        authdom.Kind

	Psu         psu.Identity
	ScaApproach authdom.ScaApproach

	TppRedirectURI    string
	TppNokRedirectURI string
}

// StartAuthorisation resuelve el parent, abre la sesión (reconciliación de
// PSU y regla de cierre incluidas) y devuelve su token opaco.
func (s *Service) StartAuthorisation(ctx context.Context, req StartAuthorisationRequest) (*AuthorisationResult, error) {
	parentID, err := s.decodeID(ctx, parentTokenKind(req.ParentKind), req.ParentToken)
	if err != nil {
		return nil, err
	}

	a, err := s.authorisations.Create(ctx, authsvc.CreateRequest{
		InstanceID:        req.InstanceID,
		Parent:            authsvc.Parent{ID: parentID, Kind: req.ParentKind},
		Kind:              req.Kind,
		Psu:               req.Psu,
		ScaApproach:       req.ScaApproach,
		TppRedirectURI:    req.TppRedirectURI,
		TppNokRedirectURI: req.TppNokRedirectURI,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.encodeID(opaque.KindAuthorisation, a.ID)
	if err != nil {
		return nil, err
	}
	return &AuthorisationResult{Token: token, Authorisation: a}, nil
}

// UpdateAuthorisationRequest avanza una sesión referida por token opaco.
type UpdateAuthorisationRequest struct {
	ParentToken string
	ParentKind  authdom.ParentKind
	Token       string

	NewStatus      authdom.ScaStatus
	Psu            psu.Identity
	ChosenMethodID string
}

// UpdateAuthorisation avanza el estado SCA de la sesión y, si la sesión
// quedó Finalised, agrega el resultado sobre el parent (multi-level SCA):
// el consent pasa a Valid cuando todos sus PSUs vinculados finalizaron, o a
// PartiallyAuthorised mientras falte alguno; el payment análogamente a
// ACCP / PATC, y a CANC si la sesión era de cancelación.
func (s *Service) UpdateAuthorisation(ctx context.Context, req UpdateAuthorisationRequest) (*AuthorisationResult, error) {
	parentID, err := s.decodeID(ctx, parentTokenKind(req.ParentKind), req.ParentToken)
	if err != nil {
		return nil, err
	}
	authID, err := s.decodeID(ctx, opaque.KindAuthorisation, req.Token)
	if err != nil {
		return nil, err
	}

	a, err := s.authorisations.Update(ctx, authsvc.UpdateRequest{
		AuthorisationID: authID,
		Parent:          authsvc.Parent{ID: parentID, Kind: req.ParentKind},
		NewStatus:       req.NewStatus,
		Psu:             req.Psu,
		ChosenMethodID:  req.ChosenMethodID,
	})
	if err != nil {
		return nil, err
	}

	if a.ScaStatus == authdom.ScaStatusFinalised {
		if err := s.aggregateParent(ctx, a); err != nil {
			logger.From(ctx).Error("parent aggregation failed",
				logger.Layer("service"),
				logger.Component("lifecycle"),
				logger.AuthorisationID(a.ID),
				logger.Err(err),
			)
			return nil, err
		}
	}

	return &AuthorisationResult{Token: req.Token, Authorisation: a}, nil
}

// GetScaStatus resuelve tokens y retorna el estado SCA de la sesión, con la
// expiración lazy del parent aplicada primero.
func (s *Service) GetScaStatus(ctx context.Context, parentToken string, parentKind authdom.ParentKind, token string) (authdom.ScaStatus, error) {
	parentID, err := s.decodeID(ctx, parentTokenKind(parentKind), parentToken)
	if err != nil {
		return "", err
	}
	authID, err := s.decodeID(ctx, opaque.KindAuthorisation, token)
	if err != nil {
		return "", err
	}
	return s.authorisations.GetScaStatus(ctx, authsvc.Parent{ID: parentID, Kind: parentKind}, authID)
}

// IsMethodDecoupled reporta si el método elegido es decoupled; degradación
// silenciosa a false ante tokens o métodos desconocidos.
func (s *Service) IsMethodDecoupled(ctx context.Context, token, methodID string) bool {
	authID, err := s.decodeID(ctx, opaque.KindAuthorisation, token)
	if err != nil {
		return false
	}
	return s.authorisations.IsMethodDecoupled(ctx, authID, methodID)
}

// ReplaceAuthorisationMethods guarda los métodos de autenticación ofrecidos.
func (s *Service) ReplaceAuthorisationMethods(ctx context.Context, token string, methods []authdom.Method) error {
	authID, err := s.decodeID(ctx, opaque.KindAuthorisation, token)
	if err != nil {
		return err
	}
	return s.authorisations.ReplaceMethods(ctx, authID, methods)
}

func parentTokenKind(k authdom.ParentKind) opaque.Kind {
	if k == authdom.ParentPayment {
		return opaque.KindPayment
	}
	return opaque.KindConsent
}
