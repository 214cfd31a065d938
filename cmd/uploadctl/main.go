// uploadctl uploads local image files through the media gateway and
// registers the results with the content backend. It is the command-line
// counterpart of the admin UI's batch uploader.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"cms_server/client/uploader"
	cmnenv "cms_server/server/common/env"
)

func main() {
	var (
		cmsURL    = flag.String("cms", cmnenv.String("CMS_URL", "http://localhost:8080"), "content backend base URL")
		gwURL     = flag.String("gateway", cmnenv.String("MEDIAGW_URL", "http://localhost:8081"), "media gateway base URL")
		username  = flag.String("user", cmnenv.String("ADMIN_USERNAME", "admin"), "admin username")
		password  = flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (or ADMIN_PASSWORD env)")
		target    = flag.String("target", "", "where to register uploads: folder:<id>, newfolder:<title>:<YYYY-MM-DD>, or media")
		quiet     = flag.Bool("quiet", false, "suppress per-file progress output")
		maxSizeMB = flag.Int64("max-file-mb", 25, "per-file size ceiling in megabytes")
	)
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: uploadctl [flags] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *password == "" {
		log.Fatal("admin password required: pass -password or set ADMIN_PASSWORD")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := uploader.Login(ctx, *cmsURL, *username, *password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	batch := uploader.NewBatch(client, strings.TrimRight(*gwURL, "/")+"/media/upload",
		uploader.WithMaxFileSize(*maxSizeMB<<20))

	added, rejectedFiles, err := batch.AddFiles(paths...)
	if err != nil {
		log.Fatalf("add files: %v", err)
	}
	for _, r := range rejectedFiles {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", r.Path, r.Reason)
	}
	if len(added) == 0 {
		log.Fatal("no files accepted")
	}

	go func() {
		for ev := range batch.Events() {
			if *quiet {
				continue
			}
			switch ev.State {
			case uploader.StateUploading:
				fmt.Printf("%s: %d%%\n", ev.Name, ev.Progress)
			case uploader.StateUploaded:
				fmt.Printf("%s: done\n", ev.Name)
			case uploader.StateFailed:
				fmt.Printf("%s: failed: %s\n", ev.Name, ev.Reason)
			case uploader.StateCancelled:
				fmt.Printf("%s: cancelled\n", ev.Name)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		batch.CancelAll()
	}()

	batch.StartAll(ctx)
	batch.Wait()

	assets := batch.Descriptors()
	fmt.Printf("uploaded %d of %d files\n", len(assets), len(added))
	if len(assets) == 0 {
		os.Exit(1)
	}

	if err := register(context.Background(), client, *target, assets); err != nil {
		log.Fatalf("register uploads: %v", err)
	}
}

// register submits the uploaded descriptors to the backend. Uploads that
// failed are simply absent from assets; whatever landed gets recorded.
func register(ctx context.Context, client *uploader.CMSClient, target string, assets []uploader.AssetDescriptor) error {
	switch {
	case target == "":
		fmt.Println("no -target given, uploads left unregistered:")
		for _, a := range assets {
			fmt.Printf("  %s %s\n", a.FileID, a.URL)
		}
		return nil

	case target == "media":
		items := make([]uploader.MediaSubmission, 0, len(assets))
		for _, a := range assets {
			items = append(items, uploader.MediaSubmission{Title: a.FileID, Asset: a})
		}
		count, err := client.AddMedia(ctx, items)
		if err != nil {
			return err
		}
		fmt.Printf("registered %d media items\n", count)
		return nil

	case strings.HasPrefix(target, "folder:"):
		var folderID int64
		if _, err := fmt.Sscanf(target, "folder:%d", &folderID); err != nil {
			return fmt.Errorf("bad folder target %q: %w", target, err)
		}
		count, err := client.AddFolderImages(ctx, folderID, assets)
		if err != nil {
			return err
		}
		fmt.Printf("added %d images to folder %d\n", count, folderID)
		return nil

	case strings.HasPrefix(target, "newfolder:"):
		parts := strings.SplitN(target, ":", 3)
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return fmt.Errorf("bad newfolder target %q: want newfolder:<title>:<YYYY-MM-DD>", target)
		}
		sub := uploader.FolderSubmission{Title: parts[1], EventDate: parts[2]}
		folderID, err := client.CreateFolder(ctx, sub, assets[0])
		if err != nil {
			return err
		}
		fmt.Printf("created folder %d with thumbnail %s\n", folderID, assets[0].FileID)
		if len(assets) > 1 {
			count, err := client.AddFolderImages(ctx, folderID, assets[1:])
			if err != nil {
				return err
			}
			fmt.Printf("added %d more images\n", count)
		}
		return nil

	default:
		return fmt.Errorf("unknown target %q", target)
	}
}
