package softaculous

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// CPanelThemePaths are tried in order; the Softaculous entry point lives under
// the account's theme directory, which differs between cPanel versions.
var CPanelThemePaths = []string{
	"/frontend/jupiter/softaculous/index.live.php",
	"/frontend/paper_lantern/softaculous/index.live.php",
	"/cpsess0/frontend/jupiter/softaculous/index.live.php",
	"/cpsess0/frontend/paper_lantern/softaculous/index.live.php",
}

const (
	directAdminLoginPath  = "/CMD_LOGIN"
	directAdminPluginPath = "/CMD_PLUGINS/softaculous/index.raw"
)

func (c *Client) doCPanel(ctx context.Context, req *ActionRequest) (any, error) {
	return firstReachable(ctx, c.themePaths, func(ctx context.Context, path string) (any, error) {
		return c.roundTrip(ctx, c.httpClient, req, path, true)
	})
}

// firstReachable runs attempt for each path in order and returns the first
// outcome that is not a 404 or a connection failure. A decoded reply or any
// other error ends the loop.
func firstReachable(ctx context.Context, paths []string, attempt func(context.Context, string) (any, error)) (any, error) {
	var lastErr error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Kind: KindTransport, Message: "request cancelled", Err: err}
		}
		reply, err := attempt(ctx, path)
		if err == nil || !fallsThrough(err) {
			return reply, err
		}
		zerolog.Ctx(ctx).Debug().Err(err).Str("path", path).Msg("theme path unusable, trying next")
		lastErr = err
	}
	msg := fmt.Sprintf("could not reach Softaculous on cPanel, tried %d theme paths", len(paths))
	if lastErr != nil {
		msg += ": " + lastErr.Error()
	}
	return nil, &Error{Kind: KindUnreachable, Message: msg}
}

// doDirectAdmin logs in and runs the action with the session cookie. The jar
// lives only for this call.
func (c *Client) doDirectAdmin(ctx context.Context, req *ActionRequest) (any, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "create cookie jar", Err: err}
	}

	login := *c.httpClient
	login.Jar = jar
	login.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	if err := c.loginDirectAdmin(ctx, &login); err != nil {
		return nil, err
	}

	session := *c.httpClient
	session.Jar = jar
	session.CheckRedirect = nil
	return c.roundTrip(ctx, &session, req, directAdminPluginPath, false)
}

func (c *Client) loginDirectAdmin(ctx context.Context, hc *http.Client) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Login)
	defer cancel()

	form := url.Values{}
	form.Set("username", c.desc.Username)
	form.Set("password", c.desc.Password)
	form.Set("referer", directAdminPluginPath)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.desc.baseURL()+directAdminLoginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return &Error{Kind: KindTransport, Message: "build login request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(httpReq)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "directadmin login request failed", Err: err}
	}
	defer resp.Body.Close()
	preview, _ := io.ReadAll(io.LimitReader(resp.Body, previewLen))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound:
		zerolog.Ctx(ctx).Debug().Int("status", resp.StatusCode).Msg("directadmin login accepted")
		return nil
	}
	return &Error{
		Kind:    KindAuthFailed,
		Message: fmt.Sprintf("directadmin login failed with HTTP %d", resp.StatusCode),
		Status:  resp.StatusCode,
		Preview: string(preview),
	}
}
