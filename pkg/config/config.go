package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

func New() (Config, error) {
	environment := optionalEnv("ENVIRONMENT", "production")

	hostname, err := requireEnv("HOSTNAME")
	if err != nil {
		return Config{}, err
	}

	uiURL, err := requireEnv("UI_URL")
	if err != nil {
		return Config{}, err
	}

	serverPort, err := optionalEnvAsInt("SERVER_PORT", 8080)
	if err != nil {
		return Config{}, err
	}

	jaegerCollectorURL := optionalEnv("JAEGER_COLLECTOR_URL", "")

	adminUser, err := newAdminUser()
	if err != nil {
		return Config{}, err
	}

	postgresql, err := newPostgresql()
	if err != nil {
		return Config{}, err
	}

	redis, err := newRedis()
	if err != nil {
		return Config{}, err
	}

	rabbitmq, err := newRabbitMQ()
	if err != nil {
		return Config{}, err
	}

	s3, err := newS3()
	if err != nil {
		return Config{}, err
	}

	smtp, err := newSMTP()
	if err != nil {
		return Config{}, err
	}

	mail, err := newMail()
	if err != nil {
		return Config{}, err
	}

	site, err := newSite()
	if err != nil {
		return Config{}, err
	}

	authentication, err := newAuthentication()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Environment:        environment,
		Hostname:           hostname,
		UIURL:              uiURL,
		ServerPort:         serverPort,
		JaegerCollectorURL: jaegerCollectorURL,
		AdminUser:          adminUser,
		Postgresql:         postgresql,
		Redis:              redis,
		RabbitMQ:           rabbitmq,
		S3:                 s3,
		SMTP:               smtp,
		Mail:               mail,
		Site:               site,
		Authentication:     authentication,
	}, nil
}

type Config struct {
	Environment string
	Hostname    string
	UIURL       string
	ServerPort  int
	// JaegerCollectorURL enables tracing when set, spans are dropped otherwise.
	JaegerCollectorURL string
	AdminUser          AdminUser
	Postgresql         Postgresql
	Redis              Redis
	RabbitMQ           RabbitMQ
	S3                 S3
	SMTP               SMTP
	Mail               Mail
	Site               Site
	Authentication     Authentication
}

// AdminUser is created and added to the administrators org on boot so a fresh deployment can be
// signed into.
type AdminUser struct {
	Email    string
	Password string
}

func newAdminUser() (AdminUser, error) {
	email, err := requireEnv("ADMIN_USER_EMAIL")
	if err != nil {
		return AdminUser{}, err
	}
	password, err := requireEnv("ADMIN_USER_PASSWORD")
	if err != nil {
		return AdminUser{}, err
	}
	return AdminUser{
		Email:    email,
		Password: password,
	}, nil
}

type Postgresql struct {
	Host         string
	Port         int
	Username     string
	Password     string
	DatabaseName string
}

func newPostgresql() (Postgresql, error) {
	host, err := requireEnv("DATABASE_HOST")
	if err != nil {
		return Postgresql{}, err
	}
	port, err := requireEnvAsInt("DATABASE_PORT")
	if err != nil {
		return Postgresql{}, err
	}
	username, err := requireEnv("DATABASE_USERNAME")
	if err != nil {
		return Postgresql{}, err
	}
	password, err := requireEnv("DATABASE_PASSWORD")
	if err != nil {
		return Postgresql{}, err
	}
	name, err := requireEnv("DATABASE_NAME")
	if err != nil {
		return Postgresql{}, err
	}
	return Postgresql{
		Host:         host,
		Port:         port,
		Username:     username,
		Password:     password,
		DatabaseName: name,
	}, nil
}

type Redis struct {
	Host     string
	Port     int
	Password string
}

func newRedis() (Redis, error) {
	host, err := requireEnv("REDIS_HOST")
	if err != nil {
		return Redis{}, err
	}
	port, err := requireEnvAsInt("REDIS_PORT")
	if err != nil {
		return Redis{}, err
	}
	return Redis{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
	}, nil
}

type RabbitMQ struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (r RabbitMQ) GetUrl() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

func newRabbitMQ() (RabbitMQ, error) {
	host, err := requireEnv("RABBITMQ_HOST")
	if err != nil {
		return RabbitMQ{}, err
	}
	port, err := requireEnvAsInt("RABBITMQ_PORT")
	if err != nil {
		return RabbitMQ{}, err
	}
	username, err := requireEnv("RABBITMQ_USERNAME")
	if err != nil {
		return RabbitMQ{}, err
	}
	password, err := requireEnv("RABBITMQ_PASSWORD")
	if err != nil {
		return RabbitMQ{}, err
	}
	return RabbitMQ{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
	}, nil
}

type S3 struct {
	Region string
	// Endpoint overrides the AWS endpoint, it is only set when running against an S3 compatible
	// store like localstack.
	Endpoint         string
	Bucket           string
	AttachmentPrefix string
}

func newS3() (S3, error) {
	region, err := requireEnv("S3_REGION")
	if err != nil {
		return S3{}, err
	}
	bucket, err := requireEnv("S3_BUCKET")
	if err != nil {
		return S3{}, err
	}
	return S3{
		Region:           region,
		Endpoint:         os.Getenv("S3_ENDPOINT"),
		Bucket:           bucket,
		AttachmentPrefix: optionalEnv("S3_ATTACHMENT_PREFIX", "email-message-attachments"),
	}, nil
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
}

func newSMTP() (SMTP, error) {
	host, err := requireEnv("SMTP_HOST")
	if err != nil {
		return SMTP{}, err
	}
	port, err := requireEnvAsInt("SMTP_PORT")
	if err != nil {
		return SMTP{}, err
	}
	return SMTP{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}, nil
}

type Mail struct {
	TemplatesDir          string
	CooldownPeriodSeconds int
	CooldownAllowed       int
}

func newMail() (Mail, error) {
	period, err := optionalEnvAsInt("MAIL_COOLDOWN_PERIOD_SECONDS", 180)
	if err != nil {
		return Mail{}, err
	}
	allowed, err := optionalEnvAsInt("MAIL_COOLDOWN_ALLOWED", 1)
	if err != nil {
		return Mail{}, err
	}
	return Mail{
		TemplatesDir:          optionalEnv("MAIL_TEMPLATES_DIR", "./templates"),
		CooldownPeriodSeconds: period,
		CooldownAllowed:       allowed,
	}, nil
}

// Site carries the branding defaults merged into every message's template context. It is loaded
// from a YAML file so the same image can serve differently branded deployments.
type Site struct {
	Name                string `yaml:"name"`
	Company             string `yaml:"company"`
	CompanyAddress      string `yaml:"companyAddress"`
	CompanyCityStateZip string `yaml:"companyCityStateZip"`
	ContactEmail        string `yaml:"contactEmail"`
	LogoURL             string `yaml:"logoUrl"`
	LogoURLLink         string `yaml:"logoUrlLink"`
	DefaultFromEmail    string `yaml:"defaultFromEmail"`
	DefaultFromName     string `yaml:"defaultFromName"`
}

func newSite() (Site, error) {
	path, err := requireEnv("SITE_CONFIG_FILE")
	if err != nil {
		return Site{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Site{}, fmt.Errorf("failed to read site config %q: %s", path, err)
	}

	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return Site{}, fmt.Errorf("failed to parse site config %q: %s", path, err)
	}

	if site.DefaultFromEmail == "" {
		return Site{}, fmt.Errorf("site config %q: defaultFromEmail must be set", path)
	}

	return site, nil
}

type Authentication struct {
	PrivateKey                              *rsa.PrivateKey
	RefreshTokenSecretKey                   string
	AccessTokenExpirationSeconds            int
	RefreshTokenExpirationSeconds           int
	RefreshTokenRememberMeExpirationSeconds int
	PasswordTokenTTLSeconds                 uint
	SameSiteMode                            http.SameSite
}

func newAuthentication() (Authentication, error) {
	privateKey, err := newPrivateKey()
	if err != nil {
		return Authentication{}, err
	}
	refreshTokenSecretKey, err := requireEnv("REFRESH_TOKEN_SECRET_KEY")
	if err != nil {
		return Authentication{}, err
	}
	accessTokenExpirationSeconds, err := requireEnvAsInt("ACCESS_TOKEN_EXPIRATION_SECONDS")
	if err != nil {
		return Authentication{}, err
	}
	refreshTokenExpirationSeconds, err := requireEnvAsInt("REFRESH_TOKEN_EXPIRATION_SECONDS")
	if err != nil {
		return Authentication{}, err
	}
	refreshTokenRememberMeExpirationSeconds, err := requireEnvAsInt("REFRESH_TOKEN_REMEMBER_ME_EXPIRATION_SECONDS")
	if err != nil {
		return Authentication{}, err
	}
	passwordTokenTTLSeconds, err := requireEnvAsInt("PASSWORD_TOKEN_TTL_SECONDS")
	if err != nil {
		return Authentication{}, err
	}
	sameSiteMode, err := newSameSiteMode()
	if err != nil {
		return Authentication{}, err
	}
	return Authentication{
		PrivateKey:                              privateKey,
		RefreshTokenSecretKey:                   refreshTokenSecretKey,
		AccessTokenExpirationSeconds:            accessTokenExpirationSeconds,
		RefreshTokenExpirationSeconds:           refreshTokenExpirationSeconds,
		RefreshTokenRememberMeExpirationSeconds: refreshTokenRememberMeExpirationSeconds,
		PasswordTokenTTLSeconds:                 uint(passwordTokenTTLSeconds),
		SameSiteMode:                            sameSiteMode,
	}, nil
}

func newPrivateKey() (*rsa.PrivateKey, error) {
	key, err := requireEnv("PRIVATE_KEY")
	if err != nil {
		return nil, err
	}

	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PRIVATE_KEY as base64: %s", err)
	}

	block, _ := pem.Decode(decoded)
	if block == nil {
		return nil, errors.New("failed to decode PRIVATE_KEY as PEM")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PRIVATE_KEY: %s", err)
	}

	return privateKey, nil
}

func newSameSiteMode() (http.SameSite, error) {
	sameSiteMode, err := requireEnv("SAME_SITE_MODE")
	if err != nil {
		return 0, err
	}

	switch sameSiteMode {
	case "default":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	}

	return 0, fmt.Errorf("failed to parse same site mode: %s", sameSiteMode)
}

func requireEnv(key string) (string, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return "", fmt.Errorf("required environment variable %q not set", key)
	}
	return value, nil
}

func requireEnvAsInt(key string) (int, error) {
	valueStr, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse environment variable %q as int: %w", key, err)
	}
	return value, nil
}

func optionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func optionalEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("failed to parse environment variable %q as int: %w", key, err)
	}
	return value, nil
}
