package gcp

import "testing"

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  StorageConfig
		want string
	}{
		{
			name: "gcs default",
			cfg:  StorageConfig{Mode: StorageModeGCS, Bucket: "coursehub"},
			want: "https://storage.googleapis.com/coursehub/material/a/b.pdf",
		},
		{
			name: "emulator",
			cfg:  StorageConfig{Mode: StorageModeEmulator, Bucket: "coursehub", EmulatorHost: "http://localhost:4443"},
			want: "http://localhost:4443/coursehub/material/a/b.pdf",
		},
		{
			name: "public base wins",
			cfg:  StorageConfig{Mode: StorageModeEmulator, Bucket: "coursehub", EmulatorHost: "http://fake-gcs:4443", PublicBaseURL: "http://localhost:4443"},
			want: "http://localhost:4443/coursehub/material/a/b.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PublicURL(tt.cfg, ObjectKey(BucketCategoryMaterial, "/a/b.pdf")); got != tt.want {
				t.Fatalf("PublicURL: want=%q got=%q", tt.want, got)
			}
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := ContentTypeForKey("x/Slides.PDF?v=1"); got != "application/pdf" {
		t.Fatalf("pdf: got=%q", got)
	}
	if got := ContentTypeForKey("avatar.png"); got != "image/png" {
		t.Fatalf("png: got=%q", got)
	}
	if got := ContentTypeForKey("unknown.bin"); got != "" {
		t.Fatalf("unknown: got=%q", got)
	}
}

func TestStorageConfigFromEnv(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("OBJECT_STORAGE_BUCKET", "coursehub")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")
	cfg, err := StorageConfigFromEnv()
	if err != nil {
		t.Fatalf("StorageConfigFromEnv: %v", err)
	}
	if !cfg.IsEmulator() || cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("OBJECT_STORAGE_MODE", "s3")
	if _, err := StorageConfigFromEnv(); err == nil {
		t.Fatalf("expected invalid mode error")
	}

	t.Setenv("OBJECT_STORAGE_MODE", "gcs")
	t.Setenv("OBJECT_STORAGE_BUCKET", "")
	if _, err := StorageConfigFromEnv(); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

func TestClientOptions(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	tests := []struct {
		name  string
		creds string
		want  int
	}{
		{name: "application default", want: 1},
		{name: "inline json", creds: `{"type":"service_account"}`, want: 2},
		{name: "key file", creds: "/etc/coursehub/key.json", want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := StorageConfig{Mode: StorageModeGCS, Bucket: "coursehub", Credentials: tt.creds}
			if got := len(cfg.ClientOptions()); got != tt.want {
				t.Fatalf("options: want=%d got=%d", tt.want, got)
			}
		})
	}
}
