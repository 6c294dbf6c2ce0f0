// Command esign drives a signing session against the e-sign API from the
// terminal: load the document, place the signature, then sign or reject.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/placement"
	"kpp-siprima/internal/render"
	"kpp-siprima/internal/security"
	"kpp-siprima/internal/signing"
	"os"
	"time"
)

// osExit is a variable for os.Exit to allow testing
var osExit = os.Exit

func main() {
	Run(os.Args)
}

// Run dispatches args[1] to its subcommand.
func Run(args []string) {
	if len(args) < 2 {
		Usage()
		return
	}

	var err error
	switch args[1] {
	case "templates":
		err = templatesCommand(args[2:])
	case "status":
		err = statusCommand(args[2:])
	case "submit":
		err = submitCommand(args[2:])
	case "sign":
		err = signCommand(args[2:])
	case "reject":
		err = rejectCommand(args[2:])
	case "token":
		err = tokenCommand(args[2:])
	case "help", "-h", "--help":
		Usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[1])
		Usage()
		osExit(2)
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		osExit(1)
	}
}

// Usage prints the CLI usage information.
func Usage() {
	fmt.Printf("esign - KPP Si PRIMA document signing client\n\n")
	fmt.Printf("Usage: %s <command> [options] <document-id>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  templates  List your signature templates")
	fmt.Println("  status     Show the status and signatures of a document")
	fmt.Println("  submit     Route a draft document for signature")
	fmt.Println("  sign       Place a signature template on a page and sign")
	fmt.Println("  reject     Reject a document with a reason")
	fmt.Println("  token      Issue a development access token")
	fmt.Println("")
	fmt.Println("Placement values are PDF points from the top-left corner of the page.")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Printf("  %s sign -template tmplA -page 1 -x 100 -y 200 -width 150 -height 50 doc1\n", os.Args[0])
	fmt.Printf("  %s reject -notes \"wrong attachment\" doc1\n", os.Args[0])
}

type session struct {
	server  *string
	token   *string
	timeout *time.Duration
}

func sessionFlags(fs *flag.FlagSet) session {
	return session{
		server:  fs.String("server", envOr("ESIGN_SERVER", "http://localhost:8080"), "API base URL"),
		token:   fs.String("token", os.Getenv("ESIGN_TOKEN"), "bearer token (default $ESIGN_TOKEN)"),
		timeout: fs.Duration("timeout", 60*time.Second, "overall command timeout"),
	}
}

func (s session) client() (*signing.Client, context.Context, context.CancelFunc, error) {
	client, err := signing.NewClient(*s.server)
	if err != nil {
		return nil, nil, nil, err
	}
	if *s.token == "" {
		return nil, nil, nil, errors.New("a bearer token is required (-token or ESIGN_TOKEN)")
	}
	client.SetToken(*s.token)
	ctx, cancel := context.WithTimeout(context.Background(), *s.timeout)
	return client, ctx, cancel, nil
}

func documentArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", errors.New("exactly one document id is required")
	}
	return fs.Arg(0), nil
}

func templatesCommand(args []string) error {
	fs := flag.NewFlagSet("templates", flag.ExitOnError)
	s := sessionFlags(fs)
	_ = fs.Parse(args)

	client, ctx, cancel, err := s.client()
	if err != nil {
		return err
	}
	defer cancel()

	templates, err := client.ListTemplates(ctx)
	if err != nil {
		return err
	}
	if len(templates) == 0 {
		fmt.Println("No signature templates.")
		return nil
	}
	for _, t := range templates {
		image := "ok"
		if _, err := model.DecodeSignatureImage(t.SignatureImage); err != nil {
			image = model.MessageOf(err)
		}
		fmt.Printf("%s  %-30s  %s\n", t.ID, t.Name, image)
	}
	return nil
}

func statusCommand(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	s := sessionFlags(fs)
	asJSON := fs.Bool("json", false, "print the raw status document")
	_ = fs.Parse(args)

	documentID, err := documentArg(fs)
	if err != nil {
		return err
	}
	client, ctx, cancel, err := s.client()
	if err != nil {
		return err
	}
	defer cancel()

	return printStatus(ctx, client, documentID, *asJSON)
}

func printStatus(ctx context.Context, client *signing.Client, documentID string, asJSON bool) error {
	status, err := client.Status(ctx, documentID)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Printf("Document %s: %s\n", documentID, status.Status)
	for _, sig := range status.Signatures {
		fmt.Printf("  %s  %-8s  %s  %s\n", sig.SignedAt.Format(time.RFC3339), sig.Status, sig.SignerName, sig.Notes)
	}
	return nil
}

func submitCommand(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	s := sessionFlags(fs)
	_ = fs.Parse(args)

	documentID, err := documentArg(fs)
	if err != nil {
		return err
	}
	client, ctx, cancel, err := s.client()
	if err != nil {
		return err
	}
	defer cancel()

	resp, err := client.SubmitForSignature(ctx, documentID)
	if err != nil {
		return err
	}
	fmt.Printf("Document %s is now %s\n", documentID, resp.DocumentStatus)
	return nil
}

func signCommand(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	s := sessionFlags(fs)
	templateID := fs.String("template", "", "signature template id")
	page := fs.Int("page", 1, "page number")
	x := fs.Float64("x", 50, "left edge in points")
	y := fs.Float64("y", 50, "top edge in points")
	width := fs.Float64("width", 150, "box width in points")
	height := fs.Float64("height", 50, "box height in points")
	scale := fs.Float64("scale", placement.DefaultScale, "render scale of the session")
	notes := fs.String("notes", "", "optional notes")
	_ = fs.Parse(args)

	documentID, err := documentArg(fs)
	if err != nil {
		return err
	}
	if *templateID == "" {
		return model.NewValidationError("select a signature template (-template)", nil)
	}
	client, ctx, cancel, err := s.client()
	if err != nil {
		return err
	}
	defer cancel()

	source, err := client.FetchDocument(ctx, documentID)
	if err != nil {
		return err
	}

	coordinator := placement.NewCoordinator(render.NewSurface())
	pageCount, err := coordinator.Open(ctx, source, nil)
	if err != nil {
		return err
	}
	if *page < 1 || *page > pageCount {
		return model.NewValidationError(fmt.Sprintf("page must be between 1 and %d", pageCount), nil)
	}
	if err := coordinator.OnScaleChange(ctx, *scale); err != nil {
		return err
	}
	if err := coordinator.OnPageChange(ctx, *page); err != nil {
		return err
	}

	builder := signing.NewRequestBuilder(client, documentID)
	builder.Track(coordinator)

	g := placement.ToGeometry(model.Placement{Page: *page, X: *x, Y: *y, Width: *width, Height: *height}, coordinator.Scale())
	if err := coordinator.Resize(g.X, g.Y, g.Width, g.Height); err != nil {
		return err
	}

	if err := builder.SelectTemplate(ctx, *templateID); err != nil {
		return err
	}
	builder.SetNotes(*notes)

	placed, _ := coordinator.CurrentPlacement()
	fmt.Printf("Placing on page %d at (%.1f, %.1f) size %.1fx%.1f pt\n", placed.Page, placed.X, placed.Y, placed.Width, placed.Height)

	result, err := builder.SubmitSign(ctx)
	if err != nil {
		return resync(ctx, client, documentID, err)
	}
	fmt.Printf("Signed: signature %s, document is now %s\n", result.SignatureID, result.Status)
	return nil
}

func rejectCommand(args []string) error {
	fs := flag.NewFlagSet("reject", flag.ExitOnError)
	s := sessionFlags(fs)
	notes := fs.String("notes", "", "rejection reason (required)")
	yes := fs.Bool("yes", false, "confirm the rejection")
	_ = fs.Parse(args)

	documentID, err := documentArg(fs)
	if err != nil {
		return err
	}
	if !*yes {
		return errors.New("rejection is final, pass -yes to confirm")
	}
	client, ctx, cancel, err := s.client()
	if err != nil {
		return err
	}
	defer cancel()

	result, err := signing.NewRequestBuilder(client, documentID).SubmitReject(ctx, *notes)
	if err != nil {
		return resync(ctx, client, documentID, err)
	}
	fmt.Printf("Rejected: document is now %s\n", result.Status)
	return nil
}

// resync prints the server's view of the document after a conflict so the
// user sees why the action was refused.
func resync(ctx context.Context, client *signing.Client, documentID string, cause error) error {
	if model.IsKind(cause, model.KindConflict) {
		if err := printStatus(ctx, client, documentID, false); err != nil {
			fmt.Fprintf(os.Stderr, "Could not refresh status: %s\n", describe(err))
		}
	}
	return cause
}

func tokenCommand(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	configPath := fs.String("config", "", "server config to read the jwt section from")
	secret := fs.String("secret", os.Getenv("SIPRIMA_JWT_SECRET"), "HS512 secret")
	ttl := fs.String("ttl", "1h", "token lifetime")
	user := fs.String("user", "", "user uuid")
	_ = fs.Parse(args)

	if *user == "" {
		return errors.New("-user is required")
	}

	jwtConfig := config.JWTConfig{SecretKey: *secret, AccessTokenTTL: *ttl, Issuer: "kpp-siprima"}
	if *configPath != "" {
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		jwtConfig = cfg.JWT
	}

	token, err := security.NewJWTService(&jwtConfig).GenerateAccessToken(*user)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func describe(err error) string {
	if kind := model.KindOf(err); kind != "" {
		return fmt.Sprintf("%s: %s", kind, model.MessageOf(err))
	}
	return err.Error()
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
