package embedding

// pyannoteScript is the embedded helper run through uvx. It loads the model
// once, embeds either the whole file or every requested segment, and prints a
// JSON document on stdout. Fatal errors go to stderr as {"error": ...}.
// Audio is pre-loaded via torchaudio to avoid pyannote's torchcodec issues.
const pyannoteScript = `#!/usr/bin/env python3
import argparse
import json
import os
import sys
import warnings

warnings.filterwarnings("ignore", message=".*torchcodec.*")

import numpy as np
import torch
import torchaudio
from pyannote.audio import Inference, Model
from pyannote.core import Segment


def load_audio(audio_path, sample_rate=16000):
    waveform, sr = torchaudio.load(audio_path)
    if sr != sample_rate:
        waveform = torchaudio.transforms.Resample(sr, sample_rate)(waveform)
    if waveform.shape[0] > 1:
        waveform = waveform.mean(dim=0, keepdim=True)
    return {"waveform": waveform, "sample_rate": sample_rate}


def to_frames(output):
    data = getattr(output, "data", output)
    if torch.is_tensor(data):
        data = data.detach().cpu().numpy()
    arr = np.asarray(data, dtype=np.float64)
    if arr.ndim == 0 or arr.size == 0:
        raise ValueError("model returned an empty embedding")
    return arr.reshape(-1, arr.shape[-1]).tolist()


def describe(exc):
    return "%s: %s" % (type(exc).__name__, exc)


def main():
    parser = argparse.ArgumentParser()
    parser.add_argument("--audio", required=True)
    parser.add_argument("--model", required=True)
    parser.add_argument("--window", default="sliding")
    parser.add_argument("--segments")
    parser.add_argument("--device", default="cpu")
    args = parser.parse_args()

    try:
        token = os.environ.get("HF_TOKEN") or None
        use_cuda = args.device == "cuda" and torch.cuda.is_available()
        device = torch.device("cuda" if use_cuda else "cpu")
        model = Model.from_pretrained(args.model, token=token)
        if model is None:
            raise RuntimeError("could not load %s (GatedRepoError: accept the model terms)" % args.model)
        inference = Inference(model.to(device), window=args.window)
        audio = load_audio(args.audio)
    except Exception as exc:
        print(json.dumps({"error": describe(exc)}), file=sys.stderr)
        sys.exit(1)

    results = []
    if args.segments:
        with open(args.segments) as handle:
            segments = json.load(handle)
        for seg in segments:
            try:
                excerpt = Segment(start=seg["start"], end=seg["end"])
                results.append({"frames": to_frames(inference.crop(audio, excerpt))})
            except Exception as exc:
                results.append({"error": describe(exc)})
    else:
        try:
            results.append({"frames": to_frames(inference(audio))})
        except Exception as exc:
            results.append({"error": describe(exc)})

    print(json.dumps({"model": args.model, "results": results}))


if __name__ == "__main__":
    main()
`
