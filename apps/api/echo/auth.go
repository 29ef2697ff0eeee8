package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/student"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "studentToken",
		Claims:        new(Claims),
	}
	contextStudentKey = "student"
)

func initJWTConfig(conf *core.Config) middleware.JWTConfig {
	appJWTConfig.SigningKey = []byte(conf.SecretKey)
	return appJWTConfig
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	GradeID      string `json:"grade_id,omitempty"`
}

func GetStudentClaims(st student.Student, conf *core.Config, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   st.ID,
			Audience:  "Students",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     st.Username,
		Email:        st.Email,
		GradeID:      st.GradeID,
	}
}

func authenticate(ctx echo.Context, uname, pwd string, svc *student.Service, conf *core.Config) (*Claims, error) {
	rctx := ctx.Request().Context()
	st, err := svc.GetByUsernameOrEmail(rctx, uname)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding student by username or email")
	}
	if err = st.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !st.IsActive {
		return nil, errAccountDeactivated
	}
	st, err = svc.SetLastLogin(rctx, st)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetStudentClaims(st, conf), nil
}

// GenerateToken generates a signed JWT token string representing the student Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextStudent(ctx echo.Context, svc *student.Service, clms ...Claims) (student.Student, error) {
	if st, ok := ctx.Get(contextStudentKey).(student.Student); ok {
		return st, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return student.Student{}, errors.Wrap(err, "getting context claims")
		}
	}

	st, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "finding student by ID")
	}
	ctx.Set(contextStudentKey, st)
	return st, nil
}

func refreshToken(ctx echo.Context, svc *student.Service, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	st, err := getContextStudent(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context student")
	}

	// check if student is still active
	if !st.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetStudentClaims(st, conf, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
