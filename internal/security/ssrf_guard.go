// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// ErrUnsafeURL は外部URLが安全でないと判定されたことを示す。
var ErrUnsafeURL = errors.New("unsafe url")

// maxImageURLLength はクラス画像URLとして受け付ける最大長。
const maxImageURLLength = 2048

// SSRFGuardService はSSRF防止機能のインターフェースを定義する。
// クラス画像URLの登録時検証と、決済プロバイダーへの外向きHTTPクライアントで使用される。
type SSRFGuardService interface {
	// NewSafeClient は決済プロバイダー向けのHTTPクライアントを生成する。
	// HTTPS(443)のみ許可し、DNS解決後のアドレスがプライベート帯域なら接続しない。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はクラス画像URLを静的に検証する。
	ValidateURL(rawURL string) error
}

// blockedPrefixes は画像URLに直接書かれていても拒否するアドレス帯域。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// blockedHostSuffixes はクラスタ内部やメタデータサービスを指すホスト名。
var blockedHostSuffixes = []string{
	"localhost",
	".localhost",
	".internal",
	".local",
}

// GuardOption はssrfGuardの設定を変更する。
type GuardOption func(*ssrfGuard)

// WithAllowedImageHosts は画像URLのホストを許可リストに限定する。
// 指定しない場合は公開アドレスであればどのホストも許可する。
func WithAllowedImageHosts(hosts ...string) GuardOption {
	return func(g *ssrfGuard) {
		for _, h := range hosts {
			if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
				g.imageHosts[h] = struct{}{}
			}
		}
	}
}

// ssrfGuard はSSRFGuardServiceの実装。
type ssrfGuard struct {
	imageHosts map[string]struct{}
}

// NewSSRFGuard はSSRFGuardServiceの新しいインスタンスを生成する。
func NewSSRFGuard(opts ...GuardOption) *ssrfGuard {
	g := &ssrfGuard{imageHosts: map[string]struct{}{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを返す。
// 接続先の検証はDialerのControlフックで行われるため、DNS再バインディングも防げる。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はクラス画像URLを検証する。
// 保存されたURLはブラウザが読み込むため、DNS解決は行わず表記だけを見る。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty", ErrUnsafeURL)
	}
	if len(rawURL) > maxImageURLLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrUnsafeURL, maxImageURLLength)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: scheme %q", ErrUnsafeURL, parsed.Scheme)
	}

	if parsed.User != nil {
		return fmt.Errorf("%w: credentials in url", ErrUnsafeURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrUnsafeURL)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isBlockedAddr(addr) {
			return fmt.Errorf("%w: blocked address %s", ErrUnsafeURL, addr)
		}
	} else if isBlockedHostname(host) {
		return fmt.Errorf("%w: blocked host %s", ErrUnsafeURL, host)
	}

	if len(g.imageHosts) > 0 {
		if _, ok := g.imageHosts[host]; !ok {
			return fmt.Errorf("%w: host %s is not allowed", ErrUnsafeURL, host)
		}
	}

	return nil
}

func isBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsUnspecified() || addr.IsMulticast() {
		return true
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func isBlockedHostname(host string) bool {
	host = strings.TrimSuffix(host, ".")
	for _, suffix := range blockedHostSuffixes {
		if host == suffix || (strings.HasPrefix(suffix, ".") && strings.HasSuffix(host, suffix)) {
			return true
		}
	}
	return false
}
